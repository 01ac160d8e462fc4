package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/dustin/go-humanize"

	"stratus/pkg/accountinfo"
	"stratus/pkg/log"
)

func main() {
	// Initialize logger first
	_ = log.Logger

	file := flag.String("file", "", "Account info file path (default: $"+accountinfo.EnvVar+" or "+accountinfo.DefaultPath+")")
	busyTimeout := flag.Duration("busy-timeout", accountinfo.DefaultBusyTimeout, "How long to wait for a locked account info file")
	debug := flag.Bool("debug", false, "Enable debug logging")
	flag.Usage = usage
	flag.Parse()

	if *debug {
		log.SetDebugMode()
	}

	command := flag.Arg(0)
	if command == "" {
		command = "status"
	}

	store, err := accountinfo.NewStore(*file, &accountinfo.Options{BusyTimeout: *busyTimeout})
	if err != nil {
		var corrupt accountinfo.CorruptStoreError
		if errors.As(err, &corrupt) {
			log.Fatal().Str("path", corrupt.Path).Msg("Account info file is corrupt; remove it and authorize again")
		}
		log.Fatal().Err(err).Msg("Failed to open account info file")
	}
	defer store.Close()

	switch command {
	case "status":
		err = printStatus(store)
	case "clear":
		err = clearStore(store)
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n\n", command)
		flag.Usage()
		os.Exit(1)
	}

	if err != nil {
		log.Fatal().Err(err).Str("command", command).Msg("Command failed")
	}
}

func usage() {
	fmt.Fprintf(os.Stderr, "Usage: %s [flags] [command]\n", os.Args[0])
	fmt.Fprintf(os.Stderr, "\nCommands:\n")
	fmt.Fprintf(os.Stderr, "  status  Show the stored account and restrictions (default)\n")
	fmt.Fprintf(os.Stderr, "  clear   Wipe the stored account and bucket cache\n")
	fmt.Fprintf(os.Stderr, "\nFlags:\n")
	flag.PrintDefaults()
}

// printStatus reports the stored identity and restrictions. The
// application key and auth token never appear in the output.
func printStatus(store *accountinfo.Store) error {
	fmt.Printf("Account info file: %s\n", store.Path())

	accountID, err := store.GetAccountID()
	if errors.Is(err, accountinfo.ErrMissingAccountData) {
		fmt.Println("No account data stored.")
		return nil
	}
	if err != nil {
		return err
	}

	realm, err := store.GetRealm()
	if err != nil {
		return err
	}
	apiURL, err := store.GetAPIURL()
	if err != nil {
		return err
	}
	downloadURL, err := store.GetDownloadURL()
	if err != nil {
		return err
	}
	partSize, err := store.GetMinimumPartSize()
	if err != nil {
		return err
	}

	fmt.Printf("Account ID:        %s\n", accountID)
	fmt.Printf("Realm:             %s\n", realm)
	fmt.Printf("API URL:           %s\n", apiURL)
	fmt.Printf("Download URL:      %s\n", downloadURL)
	fmt.Printf("Minimum part size: %s\n", humanize.IBytes(uint64(partSize)))

	return printRestrictions(store)
}

func printRestrictions(store *accountinfo.Store) error {
	allowed, err := store.GetAllowed()
	if err != nil {
		return err
	}
	if allowed == nil {
		fmt.Println("Restrictions:      none")
		return nil
	}

	fmt.Println("Restrictions:")
	if allowed.BucketID != "" {
		if name, ok := store.LookupAllowedBucketName(); ok {
			fmt.Printf("  Bucket:       %s (%s)\n", name, allowed.BucketID)
		} else {
			fmt.Printf("  Bucket:       %s (name not cached)\n", allowed.BucketID)
		}
	}
	if allowed.NamePrefix != "" {
		fmt.Printf("  File prefix:  %s\n", allowed.NamePrefix)
	}
	if len(allowed.Capabilities) > 0 {
		fmt.Printf("  Capabilities: %s\n", strings.Join(allowed.Capabilities, ", "))
	}
	return nil
}

func clearStore(store *accountinfo.Store) error {
	if err := store.Clear(); err != nil {
		return err
	}
	fmt.Printf("Cleared account data in %s\n", store.Path())
	return nil
}
