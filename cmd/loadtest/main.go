// Command loadtest drives concurrent scripted interviews against a
// running gateway and prints a per-turn latency summary.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// script is the fixed set of candidate utterances one simulated
// interview walks through; long enough to satisfy the brevity policy.
var script = []string{
	"Hello, yes, I'm ready to get started whenever you are.",
	"Sure. I've been working as a backend engineer for about six years, mostly on payment systems, and I applied because this role combines distributed systems with a product I actually use.",
	"At my last job I designed the settlement pipeline that reconciled about two million transactions a day. I split it into an ingestion stage, a matching stage backed by Postgres, and an async retry queue, which cut our reconciliation backlog from hours to minutes.",
	"I usually start by reproducing the failure with the smallest input I can find, then bisect with logs and metrics before touching a debugger. For a recent memory leak I narrowed it to a goroutine holding a response body open by diffing heap profiles.",
	"Yes, actually. Could you tell me how the team splits work between product features and platform maintenance?",
}

func main() {
	gateway := flag.String("gateway", "ws://localhost:8000/ws/interview", "gateway WebSocket URL")
	template := flag.String("template", "backend", "interview template id")
	concurrency := flag.Int("concurrency", 10, "number of concurrent interviews")
	rounds := flag.Int("rounds", 1, "interviews per worker")
	flag.Parse()

	fmt.Printf("Load test: %d concurrent interviews x %d rounds\n", *concurrency, *rounds)
	fmt.Printf("Gateway: %s | Template: %s\n\n", *gateway, *template)

	var mu sync.Mutex
	var results []interviewResult
	var wg sync.WaitGroup

	for i := range *concurrency {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()

			for round := range *rounds {
				r := runInterview(*gateway, *template, fmt.Sprintf("Candidate %d-%d", worker, round))
				mu.Lock()
				results = append(results, r)
				mu.Unlock()
			}
		}(i)
	}

	wg.Wait()
	printSummary(results)
}

type interviewResult struct {
	success  bool
	turns    int
	turnMs   []float64
	totalMs  float64
	finished bool
	err      string
}

type event struct {
	Type              string `json:"type"`
	Text              string `json:"text"`
	Phase             string `json:"phase"`
	ExpectingResponse bool   `json:"expecting_response"`
}

func runInterview(gateway, template, candidate string) interviewResult {
	conn, _, err := websocket.DefaultDialer.Dial(gateway, nil)
	if err != nil {
		return interviewResult{err: fmt.Sprintf("dial: %v", err)}
	}
	defer conn.Close()

	meta, _ := json.Marshal(map[string]string{
		"candidate_name": candidate,
		"template_id":    template,
	})
	if err = conn.WriteMessage(websocket.TextMessage, meta); err != nil {
		return interviewResult{err: fmt.Sprintf("send meta: %v", err)}
	}

	start := time.Now()
	result := interviewResult{}

	// session_started, then the greeting.
	if _, err = readEvent(conn); err != nil {
		return interviewResult{err: fmt.Sprintf("read session: %v", err)}
	}
	if _, err = readEvent(conn); err != nil {
		return interviewResult{err: fmt.Sprintf("read greeting: %v", err)}
	}

	next := 0
	for turn := 0; turn < len(script)*4; turn++ {
		utterance := script[len(script)-1]
		if next < len(script) {
			utterance = script[next]
			next++
		}

		turnStart := time.Now()
		if err = conn.WriteMessage(websocket.TextMessage, []byte(utterance)); err != nil {
			result.err = fmt.Sprintf("send utterance: %v", err)
			return result
		}
		ev, readErr := readEvent(conn)
		if readErr != nil {
			result.err = fmt.Sprintf("read response: %v", readErr)
			return result
		}

		result.turns++
		result.turnMs = append(result.turnMs, float64(time.Since(turnStart).Milliseconds()))

		// A follow-up or clarification keeps the same question pending,
		// answer it with the closing script line next time.
		if ev.Type == "conclusion" || ev.Type == "completed" {
			result.finished = true
			break
		}
	}

	result.success = true
	result.totalMs = float64(time.Since(start).Milliseconds())
	return result
}

func readEvent(conn *websocket.Conn) (*event, error) {
	conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	for {
		msgType, data, err := conn.ReadMessage()
		if err != nil {
			return nil, err
		}
		// Skip synthesized audio frames.
		if msgType != websocket.TextMessage {
			continue
		}
		var ev event
		if err = json.Unmarshal(data, &ev); err != nil {
			continue
		}
		if ev.Type == "evaluation" {
			continue
		}
		return &ev, nil
	}
}

func printSummary(results []interviewResult) {
	var succeeded, failed, finished int
	var turnAll, totalAll []float64

	for _, r := range results {
		if !r.success {
			failed++
			continue
		}
		succeeded++
		if r.finished {
			finished++
		}
		turnAll = append(turnAll, r.turnMs...)
		totalAll = append(totalAll, r.totalMs)
	}

	fmt.Printf("\n=== Load Test Results ===\n")
	fmt.Printf("Interviews completed: %d\n", succeeded)
	fmt.Printf("Interviews concluded: %d\n", finished)
	fmt.Printf("Interviews failed:    %d\n", failed)

	if len(turnAll) == 0 {
		fmt.Println("No successful interviews to report latencies")
		return
	}

	fmt.Printf("\n%-6s %8s %8s %8s\n", "Stage", "p50", "p95", "p99")
	fmt.Printf("%-6s %8.0fms %8.0fms %8.0fms\n", "Turn", percentile(turnAll, 50), percentile(turnAll, 95), percentile(turnAll, 99))
	fmt.Printf("%-6s %8.0fms %8.0fms %8.0fms\n", "Total", percentile(totalAll, 50), percentile(totalAll, 95), percentile(totalAll, 99))
}

func percentile(data []float64, pct float64) float64 {
	sort.Float64s(data)
	idx := int(math.Ceil(pct/100*float64(len(data)))) - 1
	if idx < 0 {
		idx = 0
	}
	if idx >= len(data) {
		idx = len(data) - 1
	}
	return data[idx]
}
