package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/Iron-Ham/watchdesk/internal/api"
	"github.com/Iron-Ham/watchdesk/internal/config"
	"github.com/Iron-Ham/watchdesk/internal/errors"
	"github.com/Iron-Ham/watchdesk/internal/testutil"
)

// executeCommand runs rootCmd with args and stdin, returning combined output
func executeCommand(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	resetFlags(rootCmd)

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return buf.String(), err
}

// resetFlags restores every flag to its default; cobra keeps values between
// executions of the same command tree.
func resetFlags(c *cobra.Command) {
	for _, fs := range []*pflag.FlagSet{c.Flags(), c.PersistentFlags()} {
		fs.VisitAll(func(f *pflag.Flag) {
			_ = f.Value.Set(f.DefValue)
			f.Changed = false
		})
	}
	for _, sub := range c.Commands() {
		resetFlags(sub)
	}
}

// setupTestEnvironment points state, config and the backend at temp dirs and a fake API
func setupTestEnvironment(t *testing.T) *testutil.FakeAPI {
	t.Helper()
	viper.Reset()
	t.Cleanup(viper.Reset)

	base := t.TempDir()
	t.Setenv("XDG_STATE_HOME", filepath.Join(base, "state"))
	t.Setenv("XDG_RUNTIME_DIR", filepath.Join(base, "run"))
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(base, "config"))

	fake := testutil.NewFakeAPI(t)
	fake.AddAccount("secret1!", api.Profile{EmpNumber: "123456", Name: "Kim", Email: "kim@example.com"})
	t.Setenv("WATCHDESK_API_AUTH_URL", fake.URL())
	t.Setenv("WATCHDESK_API_DATA_URL", fake.URL())
	t.Setenv("WATCHDESK_API_ANALYSIS_URL", fake.URL())
	return fake
}

func login(t *testing.T) {
	t.Helper()
	if out, err := executeCommand(t, "", "login", "123456", "-p", "secret1!"); err != nil {
		t.Fatalf("login failed: %v\nOutput: %s", err, out)
	}
}

func TestRootCommand(t *testing.T) {
	if rootCmd.Use != "watchdesk" {
		t.Errorf("rootCmd.Use = %q, want %q", rootCmd.Use, "watchdesk")
	}

	expectedCmds := []string{
		"login", "logout", "whoami", "signup", "passwd", "withdraw",
		"favorites", "monitor", "ask", "agent", "state", "config", "dashboard",
	}
	cmdMap := make(map[string]bool)
	for _, cmd := range rootCmd.Commands() {
		cmdMap[cmd.Name()] = true
	}
	for _, expected := range expectedCmds {
		if !cmdMap[expected] {
			t.Errorf("expected subcommand %q not found", expected)
		}
	}
}

func TestLoginWhoamiLogout(t *testing.T) {
	setupTestEnvironment(t)
	login(t)

	out, err := executeCommand(t, "", "whoami")
	if err != nil {
		t.Fatalf("whoami failed: %v\nOutput: %s", err, out)
	}
	for _, want := range []string{"123456", "Kim", "kim@example.com", "Keep logged in:  false"} {
		if !strings.Contains(out, want) {
			t.Errorf("whoami output missing %q:\n%s", want, out)
		}
	}

	if out, err := executeCommand(t, "", "logout"); err != nil {
		t.Fatalf("logout failed: %v\nOutput: %s", err, out)
	}

	_, err = executeCommand(t, "", "whoami")
	if err == nil {
		t.Fatal("whoami should fail after logout")
	}
	if err.Error() != errors.UserMessage(errors.ErrNotAuthenticated) {
		t.Errorf("whoami error = %q", err)
	}
}

func TestLogin_PromptsForPassword(t *testing.T) {
	setupTestEnvironment(t)

	out, err := executeCommand(t, "secret1!\n", "login", "123456", "--keep", "--save-id")
	if err != nil {
		t.Fatalf("login failed: %v\nOutput: %s", err, out)
	}
	if !strings.Contains(out, "Password: ") {
		t.Errorf("expected a password prompt, got:\n%s", out)
	}

	out, _ = executeCommand(t, "", "whoami")
	if !strings.Contains(out, "Keep logged in:  true") {
		t.Errorf("expected keep logged in, got:\n%s", out)
	}

	// The saved id fills in the employee number on the next login
	out, err = executeCommand(t, "secret1!\n", "login", "--keep")
	if err != nil {
		t.Fatalf("second login failed: %v\nOutput: %s", err, out)
	}
	if strings.Contains(out, "Employee number: ") {
		t.Errorf("employee number should not be prompted for:\n%s", out)
	}
}

func TestLogin_WrongPassword(t *testing.T) {
	setupTestEnvironment(t)

	out, err := executeCommand(t, "", "login", "123456", "-p", "wrong-pw")
	if err == nil {
		t.Fatal("login with a wrong password should fail")
	}
	if !isReported(err) {
		t.Errorf("login failure should be reported by the notifier, got %v", err)
	}
	if !strings.Contains(out, "Incorrect employee number or password") {
		t.Errorf("expected the server detail in output:\n%s", out)
	}
}

func TestFavorites(t *testing.T) {
	setupTestEnvironment(t)

	out, err := executeCommand(t, "", "favorites")
	if err != nil {
		t.Fatalf("favorites failed: %v", err)
	}
	if !strings.Contains(out, "No favorites yet.") {
		t.Errorf("unexpected output:\n%s", out)
	}

	if out, err := executeCommand(t, "", "favorites", "toggle", "traffic"); err != nil {
		t.Fatalf("toggle failed: %v\nOutput: %s", err, out)
	}
	out, _ = executeCommand(t, "", "favorites", "list")
	if !strings.Contains(out, "/traffic") {
		t.Errorf("expected /traffic in list:\n%s", out)
	}

	if _, err := executeCommand(t, "", "favorites", "toggle", "no-such-page"); err == nil {
		t.Error("toggling an unknown page should fail")
	}

	if _, err := executeCommand(t, "", "favorites", "clear"); err != nil {
		t.Fatalf("clear failed: %v", err)
	}
	out, _ = executeCommand(t, "", "favorites", "list")
	if !strings.Contains(out, "No favorites yet.") {
		t.Errorf("expected empty list after clear:\n%s", out)
	}
}

func TestState(t *testing.T) {
	setupTestEnvironment(t)

	out, err := executeCommand(t, "", "state", "section", "monitoring")
	if err != nil {
		t.Fatalf("state section failed: %v", err)
	}
	if !strings.Contains(out, "is closed.") {
		t.Errorf("unexpected output:\n%s", out)
	}

	if _, err := executeCommand(t, "", "state", "unread", "3"); err != nil {
		t.Fatalf("state unread failed: %v", err)
	}
	out, _ = executeCommand(t, "", "state", "show")
	for _, want := range []string{`"monitoring": false`, `"unreadCount": 3`, `"hasUnread": true`} {
		if !strings.Contains(out, want) {
			t.Errorf("state missing %s:\n%s", want, out)
		}
	}

	if _, err := executeCommand(t, "", "state", "read"); err != nil {
		t.Fatalf("state read failed: %v", err)
	}
	out, _ = executeCommand(t, "", "state", "show")
	if !strings.Contains(out, `"unreadCount": 0`) {
		t.Errorf("expected unread to be cleared:\n%s", out)
	}

	if _, err := executeCommand(t, "", "state", "unread", "--", "-2"); err == nil {
		t.Error("negative unread count should fail")
	}
	if _, err := executeCommand(t, "", "state", "section", "bogus"); err == nil {
		t.Error("unknown section should fail")
	}
}

func TestMonitorOnce(t *testing.T) {
	fake := setupTestEnvironment(t)
	fake.Stats = api.TrafficStats{TotalPackets: 1200, TotalBytes: 2048}

	if _, err := executeCommand(t, "", "monitor", "--once"); err == nil {
		t.Error("monitor should require a login")
	}

	login(t)
	out, err := executeCommand(t, "", "monitor", "--once")
	if err != nil {
		t.Fatalf("monitor failed: %v\nOutput: %s", err, out)
	}
	for _, want := range []string{"Network Traffic", "1,200", "2.0 KiB"} {
		if !strings.Contains(out, want) {
			t.Errorf("monitor output missing %q:\n%s", want, out)
		}
	}

	out, err = executeCommand(t, "", "monitor", "--once", "--logs", "--json")
	if err != nil {
		t.Fatalf("monitor --logs failed: %v\nOutput: %s", err, out)
	}
	if !strings.Contains(out, `"Connected": true`) {
		t.Errorf("expected a connected JSON snapshot:\n%s", out)
	}
}

func TestAsk(t *testing.T) {
	setupTestEnvironment(t)

	out, err := executeCommand(t, "", "ask", "--raw", "what", "is", "this?")
	if err != nil {
		t.Fatalf("ask failed: %v\nOutput: %s", err, out)
	}
	if !strings.Contains(out, "echo: what is this?") {
		t.Errorf("unexpected answer:\n%s", out)
	}

	out, err = executeCommand(t, "first\n\nsecond\nexit\nignored\n", "ask", "--raw")
	if err != nil {
		t.Fatalf("interactive ask failed: %v", err)
	}
	if !strings.Contains(out, "echo: first") || !strings.Contains(out, "echo: second") {
		t.Errorf("expected both answers:\n%s", out)
	}
	if strings.Contains(out, "echo: ignored") {
		t.Errorf("input after exit should be ignored:\n%s", out)
	}
}

func TestAgentDownload(t *testing.T) {
	fake := setupTestEnvironment(t)
	dest := filepath.Join(t.TempDir(), "agent.zip")

	if _, err := executeCommand(t, "", "agent", "download", "--out", dest); err == nil {
		t.Error("download should require a login without --emp")
	}

	out, err := executeCommand(t, "", "agent", "download", "--out", dest, "--emp", "123456", "-p", "secret1!")
	if err != nil {
		t.Fatalf("download failed: %v\nOutput: %s", err, out)
	}
	got, err := os.ReadFile(dest)
	if err != nil {
		t.Fatalf("reading installer: %v", err)
	}
	if !bytes.Equal(got, fake.Agent) {
		t.Errorf("installer = %q, want %q", got, fake.Agent)
	}

	// A one-off download leaves nobody signed in
	if _, err := executeCommand(t, "", "whoami"); err == nil {
		t.Error("download with --emp should not sign in")
	}
}

func TestConfigInitSetShow(t *testing.T) {
	setupTestEnvironment(t)

	out, err := executeCommand(t, "", "config", "init")
	if err != nil {
		t.Fatalf("config init failed: %v\nOutput: %s", err, out)
	}
	if _, err := os.Stat(config.ConfigFile()); err != nil {
		t.Fatalf("config file not created: %v", err)
	}
	if _, err := executeCommand(t, "", "config", "init"); err == nil {
		t.Error("second config init should fail without --force")
	}
	if _, err := executeCommand(t, "", "config", "init", "--force"); err != nil {
		t.Errorf("config init --force failed: %v", err)
	}

	if out, err := executeCommand(t, "", "config", "set", "monitor.interval_ms", "5000"); err != nil {
		t.Fatalf("config set failed: %v\nOutput: %s", err, out)
	}
	out, err = executeCommand(t, "", "config", "show")
	if err != nil {
		t.Fatalf("config show failed: %v", err)
	}
	if !strings.Contains(out, "interval_ms: 5000") {
		t.Errorf("expected the new interval:\n%s", out)
	}

	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"unknown key", "monitor.bogus", "1"},
		{"not an integer", "monitor.interval_ms", "fast"},
		{"fails validation", "storage.driver", "postgres"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := executeCommand(t, "", "config", "set", tt.key, tt.value); err == nil {
				t.Errorf("config set %s %s should fail", tt.key, tt.value)
			}
		})
	}
}
