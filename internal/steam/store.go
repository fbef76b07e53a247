package steam

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
)

// ErrSteamNotFound reports that no Steam installation could be located.
var ErrSteamNotFound = errors.New("steam installation not found")

// User is one Steam user profile on this machine.
type User struct {
	ID  string
	Dir string // <steam>/userdata/<id>
}

// ShortcutsPath returns the path of the user's shortcuts.vdf.
func (u User) ShortcutsPath() string {
	return filepath.Join(u.Dir, "config", "shortcuts.vdf")
}

// GridDir returns the directory Steam reads custom artwork from.
func (u User) GridDir() string {
	return filepath.Join(u.Dir, "config", "grid")
}

// Store reads and writes the shortcut lists of Steam users.
type Store interface {
	Users() ([]User, error)
	Read(user User) ([]Shortcut, error)
	Write(user User, shortcuts []Shortcut) error
}

// Ensure FileStore implements Store at compile time.
var _ Store = (*FileStore)(nil)

// FileStore is a Store backed by shortcuts.vdf files on disk.
type FileStore struct {
	Location  string // Steam root, e.g. ~/.local/share/Steam
	UserID    string // optional; limits Users to one profile
	BackupDir string // optional; previous files are copied here before writes
	Logger    *zap.Logger

	now func() time.Time
}

// DefaultLocations lists the usual Steam roots relative to home.
var DefaultLocations = []string{
	".local/share/Steam",
	".steam/steam",
	".var/app/com.valvesoftware.Steam/.local/share/Steam",
}

// Locate returns the first candidate that contains a userdata directory. An
// explicit location is used as-is when it exists.
func Locate(explicit, home string) (string, error) {
	if strings.TrimSpace(explicit) != "" {
		if _, err := os.Stat(filepath.Join(explicit, "userdata")); err != nil {
			return "", fmt.Errorf("%w: %s has no userdata directory", ErrSteamNotFound, explicit)
		}
		return explicit, nil
	}
	for _, rel := range DefaultLocations {
		candidate := filepath.Join(home, rel)
		if info, err := os.Stat(filepath.Join(candidate, "userdata")); err == nil && info.IsDir() {
			return candidate, nil
		}
	}
	return "", ErrSteamNotFound
}

// Users lists the numeric user directories under userdata.
func (s *FileStore) Users() ([]User, error) {
	if s == nil || strings.TrimSpace(s.Location) == "" {
		return nil, ErrSteamNotFound
	}
	root := filepath.Join(s.Location, "userdata")
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %v", ErrSteamNotFound, root, err)
	}

	var users []User
	for _, e := range entries {
		if !e.IsDir() || e.Name() == "0" {
			continue
		}
		if _, err := strconv.ParseUint(e.Name(), 10, 64); err != nil {
			continue
		}
		if s.UserID != "" && e.Name() != s.UserID {
			continue
		}
		users = append(users, User{ID: e.Name(), Dir: filepath.Join(root, e.Name())})
	}
	sort.Slice(users, func(i, j int) bool { return users[i].ID < users[j].ID })
	if s.UserID != "" && len(users) == 0 {
		return nil, fmt.Errorf("%w: user %s not found under %s", ErrSteamNotFound, s.UserID, root)
	}
	return users, nil
}

// Read loads the user's shortcuts. A missing file means no shortcuts.
func (s *FileStore) Read(user User) ([]Shortcut, error) {
	data, err := os.ReadFile(user.ShortcutsPath())
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read shortcuts: %w", err)
	}
	shortcuts, err := Decode(data)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", user.ShortcutsPath(), err)
	}
	return shortcuts, nil
}

// Write replaces the user's shortcuts file, keeping a backup of the previous
// one when BackupDir is set.
func (s *FileStore) Write(user User, shortcuts []Shortcut) error {
	path := user.ShortcutsPath()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	if s.BackupDir != "" {
		if err := s.backup(user); err != nil {
			s.logger().Warn("shortcut backup failed", zap.String("user", user.ID), zap.Error(err))
		}
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".shortcuts-*.vdf")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if _, err := tmp.Write(Encode(shortcuts)); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write shortcuts: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close shortcuts: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("replace shortcuts: %w", err)
	}
	s.logger().Info("wrote shortcuts", zap.String("user", user.ID), zap.Int("count", len(shortcuts)))
	return nil
}

func (s *FileStore) backup(user User) error {
	data, err := os.ReadFile(user.ShortcutsPath())
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}
	if err := os.MkdirAll(s.BackupDir, 0o755); err != nil {
		return err
	}
	now := time.Now
	if s.now != nil {
		now = s.now
	}
	name := fmt.Sprintf("shortcuts_%s_%s.vdf", user.ID, now().Format("2006-01-02-15-04-05"))
	return os.WriteFile(filepath.Join(s.BackupDir, name), data, 0o644)
}

func (s *FileStore) logger() *zap.Logger {
	if s.Logger == nil {
		return zap.NewNop()
	}
	return s.Logger
}
