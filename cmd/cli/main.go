package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"time"
)

const defaultBaseURL = "http://localhost:7000"

// Small ops client for a running api-server: check status, kick a refresh,
// or dump a catalog.
func main() {
	global := flag.NewFlagSet("ottshelf", flag.ExitOnError)
	baseURL := global.String("api", defaultBaseURL, "API base URL")
	if err := global.Parse(os.Args[1:]); err != nil {
		log.Fatalf("parse flags: %v", err)
	}
	args := global.Args()
	if len(args) == 0 {
		printUsage()
		os.Exit(1)
	}

	client := &http.Client{Timeout: 15 * time.Second}

	var err error
	switch args[0] {
	case "status":
		err = printJSON(client, *baseURL+"/status")
	case "refresh":
		err = printJSON(client, *baseURL+"/refresh")
	case "catalog":
		if len(args) < 2 {
			log.Fatal("usage: ottshelf catalog <id>")
		}
		err = printCatalog(client, *baseURL, args[1])
	case "manifest":
		err = printJSON(client, *baseURL+"/manifest.json")
	default:
		printUsage()
		os.Exit(1)
	}
	if err != nil {
		log.Fatalf("%s failed: %v", args[0], err)
	}
}

func printUsage() {
	fmt.Fprintln(os.Stderr, `usage: ottshelf [-api URL] <command>

commands:
  status           scheduler state and per-catalog counts
  refresh          trigger a background refresh
  catalog <id>     list a catalog's entries
  manifest         print the addon manifest`)
}

func printJSON(client *http.Client, url string) error {
	body, err := fetch(client, url)
	if err != nil {
		return err
	}

	var pretty map[string]any
	if err := json.Unmarshal(body, &pretty); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	out, err := json.MarshalIndent(pretty, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}

func printCatalog(client *http.Client, baseURL, id string) error {
	body, err := fetch(client, baseURL+"/catalog/movie/"+id+".json")
	if err != nil {
		return err
	}

	var resp struct {
		Metas []struct {
			ID          string `json:"id"`
			Name        string `json:"name"`
			ReleaseInfo string `json:"releaseInfo"`
		} `json:"metas"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return fmt.Errorf("decode catalog: %w", err)
	}

	for _, m := range resp.Metas {
		fmt.Printf("%-12s %-10s %s\n", m.ID, m.ReleaseInfo, m.Name)
	}
	fmt.Printf("%d entries\n", len(resp.Metas))
	return nil
}

func fetch(client *http.Client, url string) ([]byte, error) {
	resp, err := client.Get(url)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("status %d: %s", resp.StatusCode, body)
	}
	return body, nil
}
