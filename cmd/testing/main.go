package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math/rand"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
)

var URL, _ = os.LookupEnv("API_URL")
var PORT, _ = os.LookupEnv("API_PORT")
var apiURL = fmt.Sprintf("http://%s:%s/api/v1/users/1001", URL, PORT)
var depositsURL = apiURL + "/deposits"
var withdrawalsURL = apiURL + "/withdrawals"
var balanceURL = apiURL + "/balance"

const (
	workers  = 10
	duration = 30 * time.Second
)

type depositRequest struct {
	Amount string `json:"amount"`
}

type withdrawalRequest struct {
	PixKey string `json:"pix_key"`
	Amount string `json:"amount"`
}

func main() {
	var wg sync.WaitGroup
	wg.Add(workers + 1)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			start := time.Now()
			for time.Since(start) < duration {
				var status int
				var err error
				if rand.Float64() < 0.7 {
					status, err = sendDeposit()
				} else {
					status, err = sendWithdrawal()
				}
				if err != nil {
					fmt.Println("Error sending request:", err)
				} else {
					fmt.Printf("Request sent. Status code: %d\n", status)
				}

				time.Sleep(time.Duration(rand.Intn(1000)) * time.Millisecond)
			}
		}()
	}

	go func() {
		defer wg.Done()
		ticker := time.NewTicker(5 * time.Second)
		for range ticker.C {
			printBalance()
		}
	}()

	wg.Wait()
	printBalance()
}

func sendDeposit() (int, error) {
	amount := rand.Float64()*200 + 1
	return post(depositsURL, depositRequest{Amount: fmt.Sprintf("%.2f", amount)})
}

func sendWithdrawal() (int, error) {
	amount := rand.Float64()*100 + 15
	return post(withdrawalsURL, withdrawalRequest{
		PixKey: uuid.New().String(),
		Amount: fmt.Sprintf("%.2f", amount),
	})
}

func post(url string, body interface{}) (int, error) {
	data, err := json.Marshal(body)
	if err != nil {
		return 0, err
	}

	req, err := http.NewRequest(http.MethodPost, url, bytes.NewBuffer(data))
	if err != nil {
		return 0, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	var payload interface{}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err == nil {
		fmt.Printf("Response: %v\n", payload)
	}
	return resp.StatusCode, nil
}

func printBalance() {
	resp, err := http.Get(balanceURL)
	if err != nil {
		fmt.Println("Error getting balance:", err)
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		fmt.Println("Wrong status code:", resp.StatusCode)
		return
	}

	var balanceResponse struct {
		Balance string `json:"balance"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&balanceResponse); err != nil {
		fmt.Println("Error decoding balance:", err)
		return
	}

	fmt.Printf("User balance: %s\n", balanceResponse.Balance)
}
