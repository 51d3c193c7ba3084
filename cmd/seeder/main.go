package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/pokestudy/battle-api/internal/models"
	"github.com/pokestudy/battle-api/internal/store"
)

func main() {
	var (
		apiURL    = flag.String("url", "http://localhost:8080/api/v1/ingest/combats", "ingest endpoint")
		csvPath   = flag.String("combats", "data/combats.csv", "combats CSV to replay")
		token     = flag.String("token", os.Getenv("ADMIN_TOKEN"), "admin token")
		chunkSize = flag.Int("chunk", 1000, "records per request")
		source    = flag.String("source", "seeder", "source tag stored with each record")
	)
	flag.Parse()

	f, err := os.Open(*csvPath)
	if err != nil {
		log.Fatalf("Failed to open combats CSV: %v", err)
	}
	combats, err := store.ParseCombats(f)
	_ = f.Close()
	if err != nil {
		log.Fatalf("Failed to parse combats CSV: %v", err)
	}
	if *chunkSize <= 0 {
		*chunkSize = 1000
	}

	client := &http.Client{Timeout: 30 * time.Second}
	var total models.IngestResponse
	for start := 0; start < len(combats); start += *chunkSize {
		end := min(start+*chunkSize, len(combats))

		var buf bytes.Buffer
		enc := json.NewEncoder(&buf)
		for _, c := range combats[start:end] {
			payload := models.CombatPayload{First: c.First, Second: c.Second, Winner: c.Winner, Source: *source}
			if err := enc.Encode(payload); err != nil {
				log.Fatalf("Failed to marshal JSON: %v", err)
			}
		}

		resp, err := post(client, *apiURL, *token, &buf)
		if err != nil {
			log.Fatalf("Chunk %d-%d failed: %v", start, end, err)
		}
		total.Accepted += resp.Accepted
		total.Rejected += resp.Rejected
		total.Shed += resp.Shed
		for _, e := range resp.Errors {
			log.Printf("chunk %d: %s", start, e)
		}
	}

	fmt.Printf("Replayed %d combats: accepted=%d rejected=%d shed=%d\n",
		len(combats), total.Accepted, total.Rejected, total.Shed)
	if total.Shed > 0 {
		os.Exit(2)
	}
}

func post(client *http.Client, url, token string, body io.Reader) (*models.IngestResponse, error) {
	req, err := http.NewRequest(http.MethodPost, url, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-ndjson")
	req.Header.Set("X-Admin-Token", token)

	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusAccepted {
		return nil, fmt.Errorf("%s: %s", resp.Status, bytes.TrimSpace(data))
	}
	var out models.IngestResponse
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return &out, nil
}
