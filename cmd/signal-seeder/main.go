// signal-seeder floods a running pipeline with synthetic webhook deliveries
// to exercise normalization and the idempotency guard under load.
package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"net/http"
	"time"

	"github.com/brianvoe/gofakeit/v6"
)

var (
	baseURL   = flag.String("url", "http://localhost:8097", "signal pipeline base URL")
	release   = flag.String("release", "RLS-SEED", "release external ID to ingest under")
	count     = flag.Int("count", 100, "number of deliveries to send")
	interval  = flag.Duration("interval", 50*time.Millisecond, "interval between deliveries")
	dupeRatio = flag.Float64("dupe-ratio", 0.2, "fraction of deliveries that repeat an earlier payload")
	seed      = flag.Int64("seed", 0, "random seed (0 uses current time)")
)

type delivery struct {
	provider string
	payload  []byte
}

func main() {
	flag.Parse()

	s := *seed
	if s == 0 {
		s = time.Now().UnixNano()
	}
	gofakeit.Seed(s)
	rng := rand.New(rand.NewSource(s))

	log.Printf("Starting signal seeder:")
	log.Printf("  URL: %s", *baseURL)
	log.Printf("  Release: %s", *release)
	log.Printf("  Deliveries: %d (dupe ratio %.2f)", *count, *dupeRatio)

	client := &http.Client{Timeout: 10 * time.Second}

	var sent []delivery
	persisted, duplicates, failures := 0, 0, 0

	for i := 0; i < *count; i++ {
		var d delivery
		if len(sent) > 0 && rng.Float64() < *dupeRatio {
			d = sent[rng.Intn(len(sent))]
		} else {
			d = generateDelivery(rng)
			sent = append(sent, d)
		}

		status, err := send(client, *baseURL, *release, d)
		switch {
		case err != nil:
			failures++
			log.Printf("delivery failed: %v", err)
		case status == "duplicate":
			duplicates++
		default:
			persisted++
		}

		if *interval > 0 && i < *count-1 {
			time.Sleep(*interval)
		}
	}

	log.Printf("Done: %d persisted, %d duplicates, %d failures", persisted, duplicates, failures)
}

func generateDelivery(rng *rand.Rand) delivery {
	if rng.Intn(2) == 0 {
		payload := map[string]interface{}{
			"id":     rng.Int63n(10_000_000),
			"action": gofakeit.RandomString([]string{"pull_request_merged", "push", "release_published", "tag_created"}),
			"repository": map[string]string{
				"full_name": fmt.Sprintf("%s/%s", gofakeit.Username(), gofakeit.Word()),
			},
			"sender": map[string]string{
				"login": gofakeit.Username(),
			},
		}
		return delivery{provider: "github-like", payload: mustJSON(payload)}
	}

	payload := map[string]interface{}{
		"issue": map[string]interface{}{
			"key": fmt.Sprintf("%s-%d", gofakeit.LetterN(4), rng.Intn(10000)),
			"fields": map[string]interface{}{
				"status": map[string]string{
					"name": gofakeit.RandomString([]string{"To Do", "In Progress", "In Review", "Done"}),
				},
			},
		},
		"user": map[string]string{
			"displayName": gofakeit.Name(),
		},
	}
	return delivery{provider: "jira-like", payload: mustJSON(payload)}
}

func send(client *http.Client, baseURL, release string, d delivery) (string, error) {
	url := fmt.Sprintf("%s/api/v1/releases/%s/webhooks/%s", baseURL, release, d.provider)
	resp, err := client.Post(url, "application/json", bytes.NewReader(d.payload))
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	var body struct {
		Status string `json:"status"`
		Error  string `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("HTTP %d: %s", resp.StatusCode, body.Error)
	}
	return body.Status, nil
}

func mustJSON(v interface{}) []byte {
	data, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return data
}
