package configs

import (
	"log"
	"os"

	"github.com/joho/godotenv"
)

type Config struct {
	Environment      string
	ChallengePort    string
	MongoDBURL       string
	NATSURL          string
	RedisURL         string
	RedisPassword    string
	JudgeSubject     string
	RankSubject      string
	SimulateJudge    bool
	JudgePassPercent int
}

func LoadConfig() Config {
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file found, using environment")
	}
	config := Config{
		Environment:      getEnv("ENVIRONMENT", "development"),
		ChallengePort:    getEnv("CHALLENGEPORT", "50056"),
		MongoDBURL:       getEnv("MONGODBURL", "mongodb://localhost:27017"),
		NATSURL:          getEnv("NATSURL", "nats://localhost:4222"),
		RedisURL:         getEnv("REDISURL", "localhost:6379"),
		RedisPassword:    getEnv("REDISPASSWORD", ""),
		JudgeSubject:     getEnv("JUDGESUBJECT", "challenges.execute.request"),
		RankSubject:      getEnv("RANKSUBJECT", "challenges.rank.recompute"),
		SimulateJudge:    getEnv("SIMULATEJUDGE", "true") == "true",
		JudgePassPercent: 70,
	}
	return config
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}
