// Event viewer - live display of planner outcome events.
// Consumes the plan and transcript topics and relays them over WebSocket.
package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/tidwall/gjson"
)

const indexHTML = `<!doctype html>
<html><head><meta charset="utf-8"><title>Planner events</title>
<style>body{font-family:monospace;margin:1em}li{margin:.3em 0}.error{color:#b00}</style></head>
<body><h3>Planner events</h3><ul id="events"></ul>
<script>
const list = document.getElementById("events");
const ws = new WebSocket((location.protocol === "https:" ? "wss://" : "ws://") + location.host + "/ws");
ws.onmessage = (m) => {
  const e = JSON.parse(m.data);
  const li = document.createElement("li");
  if (e.outcome !== "success") li.className = "error";
  li.textContent = new Date(e.timestamp).toLocaleTimeString() + " " + e.eventType + " " + e.outcome + " " + (e.text || e.destination || e.error || "");
  list.prepend(li);
};
</script></body></html>`

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}

// decodeEvent extracts display fields from a raw event payload.
func decodeEvent(topic string, value []byte) (OutcomeEvent, bool) {
	if !gjson.ValidBytes(value) {
		return OutcomeEvent{}, false
	}
	doc := gjson.ParseBytes(value)
	key := doc.Get("requestId").String()
	if key == "" {
		key = doc.Get("jobId").String()
	}
	return OutcomeEvent{
		Topic:     topic,
		EventType: doc.Get("eventType").String(),
		Key:       key,
		Outcome:   doc.Get("outcome").String(),
		Raw:       value,
	}, true
}

func consumeKafka(ctx context.Context, hub *Hub, brokers, topic string) {
	// Partition reader without consumer group, every viewer sees every event.
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:   strings.Split(brokers, ","),
		Topic:     topic,
		Partition: 0,
		MinBytes:  1,
		MaxBytes:  10e6,
	})
	defer reader.Close()

	if err := reader.SetOffsetAt(ctx, time.Now().Add(-1*time.Hour)); err != nil {
		log.Printf("Failed to seek %s: %v", topic, err)
	}

	log.Printf("Consuming from Kafka topic: %s partition 0 (last hour)", topic)

	for {
		msg, err := reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			log.Printf("Kafka read error on %s: %v", topic, err)
			time.Sleep(time.Second)
			continue
		}

		event, ok := decodeEvent(topic, msg.Value)
		if !ok {
			log.Printf("Skipping malformed event on %s", topic)
			continue
		}

		log.Printf("Received %s %s: %s", event.EventType, event.Outcome, truncate(event.Key, 40))
		select {
		case hub.broadcast <- event.Raw:
		case <-ctx.Done():
			return
		}
	}
}

func main() {
	port := flag.String("port", "8081", "HTTP server port")
	brokers := flag.String("brokers", "localhost:9092", "Kafka brokers (comma-separated)")
	topicPlan := flag.String("topic-plan", "planner.plan.generated", "Plan outcome topic")
	topicTranscript := flag.String("topic-transcript", "planner.transcript.completed", "Transcript outcome topic")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	hub := newHub()
	go hub.run(ctx.Done())

	go consumeKafka(ctx, hub, *brokers, *topicPlan)
	go consumeKafka(ctx, hub, *brokers, *topicTranscript)

	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(indexHTML))
	})
	mux.HandleFunc("/ws", wsHandler(hub))

	server := &http.Server{Addr: ":" + *port, Handler: mux, ReadHeaderTimeout: 10 * time.Second}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	log.Printf("Event viewer starting on http://localhost:%s", *port)
	log.Printf("   Kafka brokers: %s", *brokers)
	log.Printf("   Topics: %s, %s", *topicPlan, *topicTranscript)

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("Server error: %v", err)
	}
}
