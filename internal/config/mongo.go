package config

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func ConnectMongoDB(cfg *Config) (*mongo.Client, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %v", err)
	}

	// Test connection
	err = client.Ping(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to ping MongoDB: %v", err)
	}

	// Create indexes
	err = createIndexes(client, cfg.DBName)
	if err != nil {
		return nil, fmt.Errorf("failed to create indexes: %v", err)
	}

	return client, nil
}

func createIndexes(client *mongo.Client, dbName string) error {
	db := client.Database(dbName)

	// Chapters: looked up per subject in taxonomy resolution, candidate
	// ordering relies on (subject_id, order).
	chaptersCollection := db.Collection("chapters")
	chapterIndexes := []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "subject_id", Value: 1}, {Key: "order", Value: 1}},
		},
	}
	_, err := chaptersCollection.Indexes().CreateMany(context.Background(), chapterIndexes)
	if err != nil {
		return err
	}

	// Topics: resolved per chapter.
	topicsCollection := db.Collection("topics")
	topicIndexes := []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "chapter_id", Value: 1}, {Key: "order", Value: 1}},
		},
		{
			Keys: bson.D{{Key: "subject_id", Value: 1}},
		},
	}
	_, err = topicsCollection.Indexes().CreateMany(context.Background(), topicIndexes)
	if err != nil {
		return err
	}

	// Questions: listing/export filters.
	questionsCollection := db.Collection("questions")
	questionIndexes := []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "meta.subject_id", Value: 1}},
		},
		{
			Keys: bson.D{{Key: "meta.level", Value: 1}, {Key: "meta.group", Value: 1}},
		},
		{
			Keys: bson.D{{Key: "source.type", Value: 1}, {Key: "source.year", Value: -1}},
		},
	}
	_, err = questionsCollection.Indexes().CreateMany(context.Background(), questionIndexes)
	if err != nil {
		return err
	}

	// Embeddings: one vector per owner.
	embeddingsCollection := db.Collection("embeddings")
	embeddingIndexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "ref_kind", Value: 1}, {Key: "ref_id", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
	}
	_, err = embeddingsCollection.Indexes().CreateMany(context.Background(), embeddingIndexes)
	if err != nil {
		return err
	}

	// Syllabus chunks.
	syllabusCollection := db.Collection("syllabus_chunks")
	syllabusIndexes := []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "subject_id", Value: 1}, {Key: "order", Value: 1}},
		},
		{
			Keys:    bson.D{{Key: "chunk_id", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
	}
	_, err = syllabusCollection.Indexes().CreateMany(context.Background(), syllabusIndexes)
	if err != nil {
		return err
	}

	return nil
}
