package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
)

func main() {
	var (
		dir        = flag.String("dir", ".", "Directory to check")
		configPath = flag.String("config", ".errorcode.yml", "Path to configuration file")
	)
	flag.Parse()

	config, err := loadConfig(*configPath)
	if err != nil {
		log.Printf("Warning: Using default configuration: %v", err)
		config, _ = loadConfig("")
	}

	checker := NewErrorCodeChecker(config.Verbose)

	fmt.Printf("🔍 Checking ErrorCode usage in directory: %s\n", *dir)
	fmt.Printf("🚫 Excluding paths: %s\n", strings.Join(config.ExcludePaths, ", "))
	fmt.Println()

	if err := checker.CheckDirectory(*dir, config.ExcludePaths); err != nil {
		log.Fatalf("Error checking directory: %v", err)
	}

	allUsed, usageReport := checker.Report()
	for _, line := range usageReport {
		fmt.Println(line)
	}
	fmt.Println()

	exit := false
	if !allUsed && config.ExitOnUnused {
		exit = true
	}

	duplicates := checker.CheckDuplicates()
	printLines(formatViolations("duplicate error codes", duplicates))
	if len(duplicates) > 0 && config.ExitOnDuplicate {
		exit = true
	}

	if config.CheckPrefixes {
		prefixes := checker.CheckPrefixes(config.SharedPrefixes)
		printLines(formatViolations("misnamed error codes", prefixes))
		if len(prefixes) > 0 && config.ExitOnPrefix {
			exit = true
		}
	}

	if config.CheckForbidden {
		forbidden, err := checker.CheckForbiddenPatterns(config.ForbiddenPatterns)
		if err != nil {
			log.Fatalf("Error scanning forbidden patterns: %v", err)
		}
		printLines(formatViolations("uncoded error constructors", forbidden))
		if len(forbidden) > 0 && config.ExitOnForbidden {
			exit = true
		}
	}

	if exit {
		fmt.Println("🚨 Exiting due to linting violations")
		os.Exit(1)
	}
	fmt.Println("✅ All checks completed successfully!")
}

func printLines(lines []string) {
	for _, line := range lines {
		fmt.Println(line)
	}
	fmt.Println()
}
