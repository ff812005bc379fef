// Command publisher floods the push endpoint with synthetic e-commerce
// events, wrapped in the same envelope the broker would deliver. Useful for
// local load testing without a broker in the loop.
package main

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/uuid"

	"cartstream.app/ingest/internal/http/dto"
)

var eventTypes = []string{
	"view",
	"add_to_cart",
	"remove_from_cart",
	"checkout",
	"purchase",
	"search",
}

var devices = []string{"mobile", "desktop", "tablet"}

var categories = []string{
	"electronics",
	"fashion",
	"home",
	"beauty",
	"sports",
	"books",
}

func main() {
	endpoint := flag.String("endpoint", envOr("PUSH_ENDPOINT", "http://localhost:8080/pubsub/push"), "push endpoint URL")
	rate := flag.Float64("rate", 5.0, "events per second")
	count := flag.Int("count", 0, "number of events to publish (0 = infinite)")
	flag.Parse()

	faker := gofakeit.New(0)
	client := &http.Client{Timeout: 30 * time.Second}

	var interval time.Duration
	if *rate > 0 {
		interval = time.Duration(float64(time.Second) / *rate)
	}

	sent := 0
	for {
		if *count > 0 && sent >= *count {
			break
		}

		envelope, err := buildEnvelope(generateEvent(faker))
		if err != nil {
			log.Fatalf("building envelope: %v", err)
		}

		if err := publish(client, *endpoint, envelope); err != nil {
			log.Printf("publish failed: %v", err)
		}

		sent++
		if sent%100 == 0 {
			fmt.Printf("published=%d\n", sent)
		}

		if interval > 0 {
			// jitter the interval so the load is not perfectly periodic
			time.Sleep(time.Duration(float64(interval) * (0.8 + rand.Float64()*0.4)))
		}
	}
}

// generateEvent produces one payload matching the processor schema, plus
// extra keys (session_id, ip) that exercise the schema's open end.
func generateEvent(faker *gofakeit.Faker) map[string]any {
	eventType := eventTypes[rand.Intn(len(eventTypes))]

	// purchases/checkouts skew higher than views
	basePrice := faker.Price(1, 3000)
	var price float64
	switch eventType {
	case "purchase", "checkout":
		price = basePrice
	case "add_to_cart", "remove_from_cart":
		price = basePrice * 0.7
	default:
		price = basePrice * 0.4
	}

	return map[string]any{
		"event_id":   uuid.NewString(),
		"user_id":    "U" + strconv.Itoa(faker.Number(1000, 999999)),
		"event_type": eventType,
		"product_id": "P" + strconv.Itoa(faker.Number(1000, 999999)),
		"category":   categories[rand.Intn(len(categories))],
		"price":      float64(int(price*100)) / 100,
		"device":     devices[rand.Intn(len(devices))],
		"city":       faker.City(),
		"event_time": time.Now().UTC().Format(time.RFC3339),
		"session_id": uuid.NewString(),
		"ip":         faker.IPv4Address(),
	}
}

func buildEnvelope(event map[string]any) (*dto.PushEnvelope, error) {
	data, err := json.Marshal(event)
	if err != nil {
		return nil, fmt.Errorf("marshal event: %w", err)
	}

	return &dto.PushEnvelope{
		Message: &dto.PushMessage{
			Data:        base64.StdEncoding.EncodeToString(data),
			MessageID:   uuid.NewString(),
			PublishTime: time.Now().UTC().Format(time.RFC3339),
			Attributes: map[string]string{
				"schema_version": "1",
				"producer":       "publisher",
			},
		},
	}, nil
}

func publish(client *http.Client, endpoint string, envelope *dto.PushEnvelope) error {
	body, err := json.Marshal(envelope)
	if err != nil {
		return fmt.Errorf("marshal envelope: %w", err)
	}

	resp, err := client.Post(endpoint, "application/json", bytes.NewReader(body))
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return nil
}

func envOr(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}
	return fallback
}
