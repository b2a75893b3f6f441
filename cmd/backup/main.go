// backup dumps the images database with pg_dump into a timestamped file
// under ./backups. `backup list` prints available dumps, newest first.
package main

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"imagehost/internal/models"
)

const backupDir = "backups"

func main() {
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).
		With().Timestamp().Logger()

	if len(os.Args) > 1 && os.Args[1] == "list" {
		listBackups()
		return
	}

	cfg, err := models.LoadConfig()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load config")
	}

	if err := createBackup(cfg, logger); err != nil {
		logger.Fatal().Err(err).Msg("backup failed")
	}
}

func createBackup(cfg *models.Config, logger zerolog.Logger) error {
	if err := os.MkdirAll(backupDir, 0755); err != nil {
		return err
	}

	timestamp := time.Now().Format("2006-01-02_150405")
	filename := fmt.Sprintf("backup_%s.sql", timestamp)
	target := filepath.Join(backupDir, filename)

	cmd := exec.Command("pg_dump",
		"-h", cfg.DB.Host,
		"-p", cfg.DB.Port,
		"-U", cfg.DB.User,
		"-d", cfg.DB.Name,
		"-f", target,
	)
	cmd.Env = append(os.Environ(), "PGPASSWORD="+cfg.DB.Password)

	logger.Info().Str("file", filename).Msg("creating backup")

	output, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("pg_dump: %v: %s", err, strings.TrimSpace(string(output)))
	}

	info, err := os.Stat(target)
	if err != nil {
		return err
	}
	logger.Info().Str("file", filename).Int64("size", info.Size()).Msg("backup created")
	return nil
}

func listBackups() {
	entries, err := os.ReadDir(backupDir)
	if err != nil {
		fmt.Println("no backup directory")
		return
	}

	type backup struct {
		name string
		size int64
		time time.Time
	}

	backups := []backup{}
	for _, entry := range entries {
		name := entry.Name()
		if !strings.HasPrefix(name, "backup_") || !strings.HasSuffix(name, ".sql") {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		backups = append(backups, backup{name: name, size: info.Size(), time: info.ModTime()})
	}

	if len(backups) == 0 {
		fmt.Println("no backups found")
		return
	}

	sort.Slice(backups, func(i, j int) bool { return backups[i].time.After(backups[j].time) })
	for _, b := range backups {
		fmt.Printf("  %s - %d bytes - %s\n", b.name, b.size, b.time.Format("2006-01-02 15:04:05"))
	}
}
