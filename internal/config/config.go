package config

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Config struct {
	MONGODB_URL    string
	MONGODB_DB     string
	JWT_SECRET_KEY string
	LIVE_URL       string
	PORT           string
	KAFKA_ADDRESS  string
	ES_URL         string
	ES_USER        string
	ES_PASSWORD    string
	LOG_LEVEL      string
}

func LoadConfig() (*Config, error) {
	if err := godotenv.Load(".env"); err != nil {
		log.Printf("Notice: .env file not found: %v. Using system environment variables", err)
	}

	config := &Config{
		MONGODB_URL:    os.Getenv("MONGODB_URL"),
		MONGODB_DB:     os.Getenv("MONGODB_DB"),
		JWT_SECRET_KEY: os.Getenv("JWT_SECRET_KEY"),
		LIVE_URL:       os.Getenv("LIVE_URL"),
		PORT:           os.Getenv("PORT"),
		KAFKA_ADDRESS:  os.Getenv("KAFKA_ADDRESS"),
		ES_URL:         os.Getenv("ES_URL"),
		ES_USER:        os.Getenv("ES_USER"),
		ES_PASSWORD:    os.Getenv("ES_PASSWORD"),
		LOG_LEVEL:      os.Getenv("LOG_LEVEL"),
	}

	if config.MONGODB_DB == "" {
		config.MONGODB_DB = "shop"
	}

	return config, nil
}

func InitDB(cfg *Config) (*mongo.Database, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MONGODB_URL))
	if err != nil {
		return nil, fmt.Errorf("cannot connect to mongodb: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("cannot reach mongodb: %w", err)
	}

	db := client.Database(cfg.MONGODB_DB)

	// products.name is indexed for lookups, same as the collection schema.
	_, err = db.Collection("products").Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "name", Value: 1}},
	})
	if err != nil {
		return nil, fmt.Errorf("cannot create product name index: %w", err)
	}

	return db, nil
}
