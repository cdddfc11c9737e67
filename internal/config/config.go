// Package config reads the flat env-var configuration of a run. Load pulls
// in the .env file named by ALETHEIA_ENV (or .env by default); every setting
// is then a plain getter over os.Getenv with a documented default.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/aletheia-lab/aletheia/internal/domain"
	"github.com/joho/godotenv"
)

// Load reads the .env file specified by ALETHEIA_ENV (or .env by default),
// then loads the corresponding .secret file if it exists.
func Load() error {
	envFile := os.Getenv("ALETHEIA_ENV")
	if envFile == "" {
		envFile = ".env"
	}

	// Ignore errors: absent files mean config comes from the environment.
	_ = godotenv.Load(envFile)
	_ = godotenv.Load(envFile + ".secret")

	return nil
}

func getString(key, def string) string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	return v
}

func getInt(key string, def int) int {
	v, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return def
	}
	return v
}

func getFloat(key string, def float64) float64 {
	v, err := strconv.ParseFloat(os.Getenv(key), 64)
	if err != nil {
		return def
	}
	return v
}

func getBool(key string, def bool) bool {
	v, err := strconv.ParseBool(os.Getenv(key))
	if err != nil {
		return def
	}
	return v
}

// RunName labels the run in metrics and logs.
func RunName() string { return getString("RUN_NAME", "bootstrap") }

// RunDir is the run directory holding artifacts and checkpoints.
func RunDir() string { return getString("RUN_DIR", "runs/bootstrap") }

// TheoryPath is the plain-text theory file loaded once per run.
func TheoryPath() string { return os.Getenv("THEORY_PATH") }

// TheoryName names the theory inside the derivation engine.
func TheoryName() string { return getString("THEORY_NAME", "theory") }

// Premises is the comma-separated list of premise names.
func Premises() []string {
	raw := os.Getenv("PREMISES")
	if raw == "" {
		return nil
	}
	var premises []string
	for _, p := range strings.Split(raw, ",") {
		if p = strings.TrimSpace(p); p != "" {
			premises = append(premises, p)
		}
	}
	return premises
}

// GoalsPath is the held-out final-goal file.
func GoalsPath() string { return os.Getenv("GOALS_PATH") }

// ValGoalsPath is the validation goal file or shard prefix.
func ValGoalsPath() string { return os.Getenv("VAL_GOALS_PATH") }

// NConjectures is the conjecture batch size per iteration.
func NConjectures() int { return getInt("N_CONJECTURES", 100) }

// TotalIterations is the iteration budget.
func TotalIterations() int { return getInt("TOTAL_ITERATIONS", 10) }

// ExecutorMode selects task execution: "local" or "pool".
func ExecutorMode() string { return getString("EXECUTOR_MODE", "local") }

// ExecutorParallelism bounds concurrent proof searches; 0 picks the
// executor's default.
func ExecutorParallelism() int { return getInt("EXECUTOR_PARALLELISM", 0) }

// WorkerURLs is the comma-separated worker pool for pool mode.
func WorkerURLs() []string {
	raw := os.Getenv("WORKER_URLS")
	if raw == "" {
		return nil
	}
	var urls []string
	for _, u := range strings.Split(raw, ",") {
		if u = strings.TrimSpace(u); u != "" {
			urls = append(urls, u)
		}
	}
	return urls
}

// SamplerMaxAttemptsFactor caps total sampling draws at factor×batch size.
func SamplerMaxAttemptsFactor() int { return getInt("SAMPLER_MAX_ATTEMPTS_FACTOR", 0) }

// SampleRPS rate-limits policy sampling calls; 0 disables the limiter.
func SampleRPS() float64 { return getFloat("SAMPLE_RPS", 0) }

// SampleBurst is the sampling limiter's burst size.
func SampleBurst() int { return getInt("SAMPLE_BURST", 1) }

// DifficultyBuckets parses DIFFICULTY_BUCKETS of the form
// "easy:75,hard:100" into labeled percentile buckets.
func DifficultyBuckets() ([]domain.DifficultyBucket, error) {
	raw := getString("DIFFICULTY_BUCKETS", "easy:75,hard:100")
	var buckets []domain.DifficultyBucket
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		label, pct, ok := strings.Cut(part, ":")
		if !ok {
			return nil, fmt.Errorf("invalid difficulty bucket %q, want label:percentile", part)
		}
		p, err := strconv.ParseFloat(strings.TrimSpace(pct), 64)
		if err != nil || p < 0 || p > 100 {
			return nil, fmt.Errorf("invalid percentile in difficulty bucket %q", part)
		}
		buckets = append(buckets, domain.DifficultyBucket{
			Label:      strings.TrimSpace(label),
			Percentile: p,
		})
	}
	if len(buckets) == 0 {
		return nil, fmt.Errorf("DIFFICULTY_BUCKETS is empty")
	}
	return buckets, nil
}

// FreezeConjecturer suppresses tagged conjecture statements in the corpus.
func FreezeConjecturer() bool { return getBool("FREEZE_CONJECTURER", false) }

// Hindsight gates relabeled subgoal examples.
func Hindsight() bool { return getBool("HINDSIGHT", true) }

// EngineProvider selects the derivation engine: "http" or "mock".
func EngineProvider() string { return getString("ENGINE_PROVIDER", "http") }

// EngineURL is the derivation engine's base URL.
func EngineURL() string { return getString("ENGINE_URL", "http://localhost:9010") }

// PolicyProvider selects the policy backend: "http" or "mock".
func PolicyProvider() string { return getString("POLICY_PROVIDER", "http") }

// PolicyURL is the policy server's base URL.
func PolicyURL() string { return getString("POLICY_URL", "http://localhost:9020") }

// ProverProvider selects the prover: "exec" or "mock".
func ProverProvider() string { return getString("PROVER_PROVIDER", "exec") }

// ProverCommand is the proof-search command line for the exec prover.
func ProverCommand() string { return os.Getenv("PROVER_CMD") }

// Resume controls whether the run resumes from the run directory's
// checkpoint.
func Resume() bool { return getBool("RESUME", false) }

// WorkerPort is the listen port of the worker binary.
func WorkerPort() int { return getInt("WORKER_PORT", 8090) }

// WorkerAddr is the worker's listen address.
func WorkerAddr() string { return fmt.Sprintf(":%d", WorkerPort()) }

// WorkerParallelism bounds concurrent searches inside one worker.
func WorkerParallelism() int { return getInt("WORKER_PARALLELISM", 0) }

// InfluxURL enables the InfluxDB metrics sink when non-empty.
func InfluxURL() string { return os.Getenv("INFLUX_URL") }

func InfluxToken() string { return os.Getenv("INFLUX_TOKEN") }

func InfluxOrg() string { return getString("INFLUX_ORG", "aletheia") }

func InfluxBucket() string { return getString("INFLUX_BUCKET", "bootstrap") }
