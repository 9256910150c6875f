// Command keygen writes a new archive encryption key file. With -open it
// instead decrypts one archived upload to stdout using an existing key.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"

	"github.com/hitpa/claimupload/internal/archive"
	"github.com/joho/godotenv"
)

const (
	defaultKeyFile    = "fernet_key.key"
	defaultArchiveDir = "uploaded_files"
)

func main() {
	if err := godotenv.Load(); err == nil {
		slog.Debug("loaded .env file")
	}
	if err := run(os.Args[1:], os.Stdout); err != nil {
		slog.Error("keygen failed", "error", err)
		os.Exit(1)
	}
}

func run(args []string, stdout io.Writer) error {
	def := envOr("ENCRYPTION_KEY_FILE", defaultKeyFile)

	fl := flag.NewFlagSet("keygen", flag.ContinueOnError)
	fl.SetOutput(stdout)
	out := fl.String("out", def, "key file to write")
	force := fl.Bool("force", false, "replace an existing key file")
	printOnly := fl.Bool("print", false, "print the key instead of writing a file")
	open := fl.String("open", "", "decrypt the archived upload with this file name using the -out key")
	dir := fl.String("dir", envOr("UPLOAD_ARCHIVE_DIR", defaultArchiveDir), "archive directory read by -open")
	if err := fl.Parse(args); err != nil {
		return err
	}

	if *open != "" {
		return openArchive(archive.NewStore(*dir, archive.NewKeyLoader(*out)), *open, stdout)
	}

	key, err := archive.GenerateKey()
	if err != nil {
		return err
	}

	if *printOnly {
		fmt.Fprintln(stdout, key.Encode())
		return nil
	}

	if err := archive.WriteKeyFile(*out, key, *force); err != nil {
		if errors.Is(err, fs.ErrExist) {
			return fmt.Errorf("%s already exists, use -force to replace it", *out)
		}
		return err
	}
	fmt.Fprintf(stdout, "wrote %s\n", *out)
	return nil
}

func openArchive(store *archive.Store, name string, stdout io.Writer) error {
	data, err := store.Load(name)
	if errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("no archive of %s in %s", name, store.Dir())
	}
	if err != nil {
		return err
	}
	_, err = stdout.Write(data)
	return err
}

func envOr(name, fallback string) string {
	if v := os.Getenv(name); v != "" {
		return v
	}
	return fallback
}
