package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"charmstudio/internal/events"
)

// writeTestConfig writes a config selecting the offline generator with no
// phase delays and logs routed into the temp dir.
func writeTestConfig(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	body := `llm:
  provider: offline
phases:
  prove_step_delay: 0s
  broadcast_delay: 0s
  beam_step_delay: 0s
logging:
  level: warn
  file: ` + filepath.Join(dir, "studio.log") + "\n"
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

// execute runs the root command with args and returns its stdout.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	// Flag variables outlive a single Execute call.
	cfgPath, verbose, provider = "", false, ""
	configForce, forgeRaw, forgeOverride = false, false, ""
	forgeType, lifecycleType, lifecycleTarget, lifecycleQuiet = "LOGIC", "LOGIC", "Cardano", false
	navigatorRaw = false

	var out, errOut bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func TestConfigInit(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	out, err := execute(t, "--config", path, "config", "init")
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	if !strings.Contains(out, "Wrote") {
		t.Errorf("output = %q, want confirmation", out)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("config file not written: %v", err)
	}

	if _, err := execute(t, "--config", path, "config", "init"); err == nil {
		t.Error("second init without --force should fail")
	}
	if _, err := execute(t, "--config", path, "config", "init", "--force"); err != nil {
		t.Errorf("init --force: %v", err)
	}
}

func TestConfigShow_MasksAPIKey(t *testing.T) {
	path := writeTestConfig(t)
	t.Setenv("GEMINI_API_KEY", "secret-key-1234")

	out, err := execute(t, "--config", path, "config", "show")
	if err != nil {
		t.Fatalf("config show: %v", err)
	}
	if strings.Contains(out, "secret-key-1234") {
		t.Errorf("api key leaked: %s", out)
	}
	if !strings.Contains(out, "1234") {
		t.Errorf("masked key should keep its last four characters: %s", out)
	}
	if !strings.Contains(out, "provider resolves to offline") {
		t.Errorf("explicit provider should win over the key: %s", out)
	}
}

func TestForge_Offline(t *testing.T) {
	path := writeTestConfig(t)

	out, err := execute(t, "--config", path, "forge", "--raw", "--type", "stablecoin", "A", "dollar", "backed", "vault")
	if err != nil {
		t.Fatalf("forge: %v", err)
	}
	for _, want := range []string{"Self-Auditing Stablecoin", "draft", "Bitcoin", "Sources:", "https://charms.dev"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestForge_UnknownType(t *testing.T) {
	path := writeTestConfig(t)
	if _, err := execute(t, "--config", path, "forge", "--type", "NFT", "x"); err == nil {
		t.Error("unknown type should fail")
	}
}

func TestLifecycle_Offline(t *testing.T) {
	path := writeTestConfig(t)

	out, err := execute(t, "--config", path, "lifecycle", "--target", "dogecoin", "a", "game", "token")
	if err != nil {
		t.Fatalf("lifecycle: %v", err)
	}
	for _, want := range []string{"== forge", "== prove (95%)", "== broadcast (50%)", "== beam (100%)", "beamed", "Dogecoin", "TxID:"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestLifecycle_RejectsCurrentChain(t *testing.T) {
	path := writeTestConfig(t)
	_, err := execute(t, "--config", path, "lifecycle", "--quiet", "--target", "Bitcoin", "a", "token")
	if err == nil || !strings.Contains(err.Error(), "beam failed") {
		t.Errorf("err = %v, want beam failure", err)
	}
}

func TestNavigator(t *testing.T) {
	path := writeTestConfig(t)

	out, err := execute(t, "--config", path, "navigator")
	if err != nil {
		t.Fatalf("navigator: %v", err)
	}
	for _, slug := range []string{"abstract", "toad", "spells", "proofs", "beaming"} {
		if !strings.Contains(out, slug) {
			t.Errorf("topic list missing %q:\n%s", slug, out)
		}
	}

	out, err = execute(t, "--config", path, "navigator", "--raw", "spells")
	if err != nil {
		t.Fatalf("navigator spells: %v", err)
	}
	if !strings.HasPrefix(strings.TrimSpace(out), "#") {
		t.Errorf("raw topic should be Markdown: %q", out)
	}

	if _, err := execute(t, "--config", path, "navigator", "nope"); err == nil {
		t.Error("unknown topic should fail")
	}
}

func TestMaskKey(t *testing.T) {
	tests := map[string]string{
		"":          "",
		"abc":       "***",
		"abcdefghi": "*****fghi",
	}
	for in, want := range tests {
		if got := maskKey(in); got != want {
			t.Errorf("maskKey(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestCloseBus_DetachesSubscribers(t *testing.T) {
	bus := events.NewBus(1)
	sub := bus.Subscribe()
	bus.Publish(events.Event{Kind: events.KindOperationLog})
	bus.Publish(events.Event{Kind: events.KindOperationLog})

	closeBus(bus, sub)

	if got := bus.Stats(); got.SubscriberCount != 0 || got.Dropped != 1 || got.TotalPublished != 2 {
		t.Errorf("stats after close = %+v", got)
	}
	// The buffered event is still delivered before the channel reports closed.
	if _, ok := <-sub; !ok {
		t.Fatal("expected the buffered event")
	}
	if _, ok := <-sub; ok {
		t.Fatal("subscriber channel should be closed")
	}
	bus.Publish(events.Event{Kind: events.KindOperationLog})
	if got := bus.Stats().TotalPublished; got != 2 {
		t.Errorf("publish after close counted: %d", got)
	}
}
