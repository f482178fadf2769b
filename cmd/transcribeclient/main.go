// transcribeclient posts a local audio or video file to a running
// transcription service and prints the JSON response.
package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"time"
)

func main() {
	filePath := flag.String("file", "", "Path to the audio/video file to transcribe")
	serverURL := flag.String("server", "http://localhost:8000", "Transcription service base URL")
	language := flag.String("language", "", "Input language code (empty = auto-detect)")
	outputLanguage := flag.String("output-language", "en", "Desired output language code")
	timeout := flag.Duration("timeout", 10*time.Minute, "Request timeout")
	flag.Parse()

	if *filePath == "" {
		log.Fatal("-file is required")
	}

	f, err := os.Open(*filePath)
	if err != nil {
		log.Fatalf("Failed to open file: %v", err)
	}
	defer f.Close()

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	part, err := writer.CreateFormFile("file", filepath.Base(*filePath))
	if err != nil {
		log.Fatalf("Failed to create form file: %v", err)
	}
	if _, err := io.Copy(part, f); err != nil {
		log.Fatalf("Failed to read file: %v", err)
	}

	if *language != "" {
		_ = writer.WriteField("language", *language)
	}
	_ = writer.WriteField("output_language", *outputLanguage)
	writer.Close()

	client := &http.Client{Timeout: *timeout}

	log.Printf("Uploading %s (output language %s)", *filePath, *outputLanguage)

	resp, err := client.Post(*serverURL+"/transcribe", writer.FormDataContentType(), &buf)
	if err != nil {
		log.Fatalf("Request failed: %v", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		log.Fatalf("Failed to read response: %v", err)
	}

	if resp.StatusCode != http.StatusOK {
		log.Fatalf("Server returned %d: %s", resp.StatusCode, body)
	}

	var pretty bytes.Buffer
	if err := json.Indent(&pretty, body, "", "  "); err != nil {
		log.Fatalf("Invalid JSON response: %v", err)
	}
	os.Stdout.Write(pretty.Bytes())
	os.Stdout.Write([]byte("\n"))
}
