package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"collegeconnect/cache"
	configs "collegeconnect/config"
	"collegeconnect/judge"
	"collegeconnect/logger"
	"collegeconnect/mongoconn"
	"collegeconnect/natsclient"
	"collegeconnect/repository"
	"collegeconnect/service"
)

func main() {
	configValues := configs.LoadConfig()
	logStreamer := logger.NewLogStreamer(configValues.Environment)
	defer logStreamer.Sync()

	mongoClient := mongoconn.ConnectDB(configValues.MongoDBURL)
	repoInstance := repository.NewRepository(mongoClient)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	if err := repoInstance.EnsureIndexes(ctx); err != nil {
		log.Fatalf("Failed to create indexes: %v", err)
	}
	cancel()

	redisCache := cache.NewRedisCache(configValues.RedisURL, configValues.RedisPassword, 0)
	board := cache.NewBoard(redisCache.Client())

	natsInstance, err := natsclient.NewNatsClient(configValues.NATSURL)
	if err != nil {
		log.Fatalf("Failed to connect to NATS: %v", err)
	}
	defer natsInstance.Close()

	var runner judge.Runner
	if configValues.SimulateJudge {
		runner = judge.NewSimulatedRunner(configValues.JudgePassPercent, time.Now().UnixNano())
	} else {
		runner = judge.NewNatsRunner(natsInstance, configValues.JudgeSubject, 10*time.Second)
	}

	serviceInstance := service.NewService(repoInstance, natsInstance, redisCache, board, runner, configValues.RankSubject, logStreamer)
	serviceInstance.StartCronJob()
	if err := serviceInstance.StartRankConsumer(natsInstance); err != nil {
		log.Fatalf("Failed to start rank consumer: %v", err)
	}

	log.Printf("ChallengeService running (env=%s, port=%s)", configValues.Environment, configValues.ChallengePort)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down ChallengeService")
}
