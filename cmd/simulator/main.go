// The simulator drives the odometer feed for a local deployment: it logs
// in, enrolls a small fleet and then posts randomized mileage increments so
// mileage-triggered schedules become due without waiting for real driving.
package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"os"
	"strconv"
	"time"

	log "github.com/sirupsen/logrus"
)

type vehicle struct {
	ID             string  `json:"id"`
	PlateNumber    string  `json:"plate_number"`
	Make           string  `json:"make"`
	Model          string  `json:"model"`
	Year           int     `json:"year"`
	CurrentMileage float64 `json:"current_mileage"`
	DailyRate      float64 `json:"daily_rate"`
	Status         string  `json:"status"`
}

var authToken string

func authorizedPost(url string, body *bytes.Buffer) (*http.Response, error) {
	req, err := http.NewRequest(http.MethodPost, url, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if authToken != "" {
		req.Header.Set("Authorization", "Bearer "+authToken)
	}
	client := &http.Client{Timeout: 10 * time.Second}
	return client.Do(req)
}

func login(apiURL, username, password string) error {
	payload, _ := json.Marshal(map[string]string{"username": username, "password": password})
	resp, err := authorizedPost(apiURL+"/api/auth/login", bytes.NewBuffer(payload))
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("login failed: %s: %s", resp.Status, body)
	}
	var result struct {
		Token string `json:"token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return err
	}
	authToken = result.Token
	return nil
}

func createVehicle(apiURL string) (*vehicle, error) {
	makes := []string{"Toyota", "Ford", "Volkswagen", "Hyundai", "Skoda"}
	modelNames := []string{"Corolla", "Focus", "Golf", "i30", "Octavia"}
	idx := rand.Intn(len(makes))

	v := vehicle{
		PlateNumber:    fmt.Sprintf("SIM-%04d", rand.Intn(10000)),
		Make:           makes[idx],
		Model:          modelNames[idx],
		Year:           2019 + rand.Intn(6),
		CurrentMileage: float64(rand.Intn(60000)),
		DailyRate:      30 + float64(rand.Intn(90)),
		Status:         "AVAILABLE",
	}
	payload, _ := json.Marshal(v)
	resp, err := authorizedPost(apiURL+"/api/vehicles", bytes.NewBuffer(payload))
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("create vehicle failed: %s: %s", resp.Status, body)
	}
	var created vehicle
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		return nil, err
	}
	return &created, nil
}

func postOdometer(apiURL string, v *vehicle) error {
	// 20-150 km per tick, roughly a rental day of driving.
	v.CurrentMileage += 20 + rand.Float64()*130
	payload, _ := json.Marshal(map[string]float64{"mileage": v.CurrentMileage})
	resp, err := authorizedPost(fmt.Sprintf("%s/api/vehicles/%s/odometer", apiURL, v.ID), bytes.NewBuffer(payload))
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("odometer update failed: %s: %s", resp.Status, body)
	}
	return nil
}

func main() {
	apiURL := os.Getenv("API_URL")
	if apiURL == "" {
		apiURL = "http://localhost:8080"
	}
	fleetSize := 5
	if raw := os.Getenv("FLEET_SIZE"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			fleetSize = parsed
		}
	}
	interval := 30 * time.Second
	if raw := os.Getenv("TICK_INTERVAL"); raw != "" {
		if parsed, err := time.ParseDuration(raw); err == nil {
			interval = parsed
		}
	}

	username := os.Getenv("SIM_USERNAME")
	password := os.Getenv("SIM_PASSWORD")
	if username != "" {
		if err := login(apiURL, username, password); err != nil {
			log.WithError(err).Fatal("simulator login failed")
		}
		log.WithField("username", username).Info("simulator authenticated")
	}

	fleet := make([]*vehicle, 0, fleetSize)
	for i := 0; i < fleetSize; i++ {
		v, err := createVehicle(apiURL)
		if err != nil {
			log.WithError(err).Error("failed to create vehicle")
			continue
		}
		log.WithFields(log.Fields{"vehicle_id": v.ID, "plate": v.PlateNumber}).Info("vehicle enrolled")
		fleet = append(fleet, v)
	}
	if len(fleet) == 0 {
		log.Fatal("no vehicles enrolled, nothing to simulate")
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for range ticker.C {
		for _, v := range fleet {
			if err := postOdometer(apiURL, v); err != nil {
				log.WithError(err).WithField("vehicle_id", v.ID).Error("odometer tick failed")
				continue
			}
			log.WithFields(log.Fields{
				"vehicle_id": v.ID,
				"mileage":    fmt.Sprintf("%.0f", v.CurrentMileage),
			}).Debug("odometer updated")
		}
	}
}
