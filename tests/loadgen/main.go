// loadgen drives a running instance with a realistic order flow:
// recharge a wallet, fill the cart, create the order and pay it.
// Point it at the server with -addr.
package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"math/rand"
	"net/http"
	"sync"
	"time"
)

var addr = flag.String("addr", "http://localhost:8080", "server base URL")

func main() {
	flag.Parse()

	for {
		var wg sync.WaitGroup
		for range rand.Intn(5) + 1 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				runFlow(rand.Int63n(100) + 1)
			}()
		}
		wg.Wait()
		time.Sleep(50 * time.Millisecond)
	}
}

func runFlow(userID int64) {
	post("/wallet/recharge", map[string]any{"user_id": userID, "amount": "500"})
	post("/cart", map[string]any{"user_id": userID, "product_id": rand.Int63n(10) + 1, "quantity": rand.Int31n(3) + 1})

	order := post("/orders", map[string]any{
		"user_id":          userID,
		"delivery_address": fmt.Sprintf("%d Main St", rand.Intn(100)+1),
		"contact_name":     "Load Gen",
		"contact_phone":    fmt.Sprintf("+1%09d", rand.Intn(1_000_000_000)),
	})
	if order == nil {
		return
	}

	id, ok := order["id"].(float64)
	if !ok {
		return
	}
	post(fmt.Sprintf("/orders/%d/pay", int64(id)), nil)
}

func post(path string, body map[string]any) map[string]any {
	var buf bytes.Buffer
	if body != nil {
		json.NewEncoder(&buf).Encode(body)
	}

	resp, err := http.Post(*addr+path, "application/json", &buf)
	if err != nil {
		fmt.Println("POST", path, "failed:", err)
		return nil
	}
	defer resp.Body.Close()
	fmt.Println("POST", path, "->", resp.Status)

	if resp.StatusCode >= 300 {
		return nil
	}
	var decoded map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil
	}
	return decoded
}
