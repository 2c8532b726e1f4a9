package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"niriglue/internal/doctor"
)

func runCheck(args []string) int {
	fs := flag.NewFlagSet("check", flag.ExitOnError)
	configPath := fs.String("config", "", "Path to configuration file")
	jsonOut := fs.Bool("json", false, "Output in structured JSON format")
	if err := fs.Parse(args); err != nil {
		fmt.Fprintf(os.Stderr, "Flag error: %v\n", err)
		return 1
	}

	cfg, err := loadConfigForTool(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		return 1
	}

	result := doctor.New(cfg).Validate()

	if *jsonOut {
		data, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to render JSON: %v\n", err)
			return 1
		}
		fmt.Println(string(data))
	} else {
		printCheckSummary(result, cfg.Fingerprint)
	}

	if !result.Valid {
		return 1
	}
	return 0
}

func printCheckSummary(result *doctor.Result, fingerprint string) {
	for _, issue := range result.Errors {
		field := issue.Field
		if field != "" {
			field = " (" + field + ")"
		}
		fmt.Printf("ERROR [%s]%s: %s\n", issue.Category, field, issue.Message)
	}
	for _, issue := range result.Warnings {
		field := issue.Field
		if field != "" {
			field = " (" + field + ")"
		}
		fmt.Printf("WARN  [%s]%s: %s\n", issue.Category, field, issue.Message)
	}

	fmt.Printf("config fingerprint: %s\n", fingerprint)
	if result.Valid {
		fmt.Println("Status: check PASSED")
	} else {
		fmt.Println("Status: check FAILED")
	}
}
