package classify

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/zen-systems/relay/pkg/config"
)

func testClassifier() *Classifier {
	return New(config.DefaultRoutingConfig())
}

func TestClassifyTaskTypes(t *testing.T) {
	c := testClassifier()

	tests := []struct {
		name     string
		input    string
		taskType TaskType
	}{
		{"battery query", "what's my battery level", TaskSystemQuery},
		{"disk space", "how much disk space do I have", TaskSystemQuery},
		{"copy file", "copy notes.txt to the backup folder", TaskFileOperation},
		{"open app", "open Safari", TaskAppControl},
		{"uppercase", "uppercase this sentence for me", TaskTextProcessing},
		{"automation", "automate my morning workflow", TaskAutomation},
		{"help", "help", TaskHelp},
		{"how do i", "how do I use this", TaskHelp},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := c.Classify(tt.input)
			if result.TaskType != tt.taskType {
				t.Fatalf("Classify(%q).TaskType = %s, want %s", tt.input, result.TaskType, tt.taskType)
			}
		})
	}
}

func TestEmptyAndUnknownInput(t *testing.T) {
	c := testClassifier()

	for _, input := range []string{"", "   ", "xyzzy plugh frobnicate"} {
		result := c.Classify(input)
		if result.TaskType != TaskHelp {
			t.Fatalf("Classify(%q).TaskType = %s, want help", input, result.TaskType)
		}
		if result.Confidence >= 0.5 {
			t.Fatalf("Classify(%q).Confidence = %f, want < 0.5", input, result.Confidence)
		}
		if !result.NeedsEscalation {
			t.Fatalf("Classify(%q) must need escalation", input)
		}
	}
}

func TestConfidenceMarginAndStrength(t *testing.T) {
	cfg := &config.RoutingConfig{
		TaskTypes: map[string]config.TaskTypeRule{
			"alpha": {Triggers: []string{"alpha", "beta", "gamma"}, Complexity: "simple"},
			"beta":  {Triggers: []string{"delta"}, Complexity: "simple"},
		},
		Thresholds: config.Thresholds{LocalConfidence: 0.8, Escalation: 0.7},
	}
	c := New(cfg)

	result := c.Classify("alpha beta gamma")
	if result.TaskType != "alpha" {
		t.Fatalf("task type = %s", result.TaskType)
	}
	if result.Confidence < 0.9 {
		t.Fatalf("unambiguous triple match should be high confidence, got %f", result.Confidence)
	}
	if result.NeedsEscalation {
		t.Fatal("high confidence must not need escalation")
	}
}

func TestLowConfidenceSetsEscalation(t *testing.T) {
	cfg := &config.RoutingConfig{
		TaskTypes: map[string]config.TaskTypeRule{
			"alpha": {Triggers: []string{"alpha", "beta"}, Complexity: "simple"},
			"beta":  {Triggers: []string{"alpha", "beta"}, Complexity: "simple"},
		},
		Thresholds: config.Thresholds{LocalConfidence: 0.8, Escalation: 0.7},
	}
	c := New(cfg)

	// Perfect tie between two task types: zero margin, low confidence.
	result := c.Classify("alpha beta")
	if result.Confidence >= 0.7 {
		t.Fatalf("tied candidates should be low confidence, got %f", result.Confidence)
	}
	if !result.NeedsEscalation {
		t.Fatal("low confidence must set the escalation flag")
	}
}

func TestPrivacySensitive(t *testing.T) {
	c := testClassifier()

	tests := []struct {
		input     string
		sensitive bool
	}{
		{"help me with my password manager", true},
		{"rotate my api key", true},
		{"store this credential in the keychain", true},
		{"what's my battery level", false},
		{"summarize this passage", false},
	}
	for _, tt := range tests {
		result := c.Classify(tt.input)
		if result.PrivacySensitive != tt.sensitive {
			t.Errorf("Classify(%q).PrivacySensitive = %v, want %v", tt.input, result.PrivacySensitive, tt.sensitive)
		}
	}
}

func TestComplexityBumps(t *testing.T) {
	c := testClassifier()

	simple := c.Classify("copy notes.txt")
	if simple.Complexity != ComplexitySimple {
		t.Fatalf("complexity = %s", simple.Complexity)
	}

	multiStep := c.Classify("copy notes.txt and then rename the backup")
	if multiStep.Complexity != ComplexityModerate {
		t.Fatalf("multi-step complexity = %s", multiStep.Complexity)
	}

	long := c.Classify("copy " + strings.Repeat("word ", 35) + "files")
	if long.Complexity != ComplexityModerate {
		t.Fatalf("long input complexity = %s", long.Complexity)
	}
}

func TestTruncation(t *testing.T) {
	cfg := config.DefaultRoutingConfig()
	cfg.MaxInputChars = 20
	c := New(cfg)

	result := c.Classify("copy a.txt " + strings.Repeat("x", 100))
	if !result.Truncated {
		t.Fatal("oversized input must be flagged truncated")
	}
	if result.TaskType != TaskFileOperation {
		t.Fatalf("task type = %s; truncation must not break matching of the head", result.TaskType)
	}
}

func TestTruncationKeepsRuneBoundaries(t *testing.T) {
	cfg := config.DefaultRoutingConfig()
	// The cap lands inside the two-byte é of "café".
	cfg.MaxInputChars = 14
	c := New(cfg)

	result := c.Classify("copy /tmp/café.txt now")
	if !result.Truncated {
		t.Fatal("input over the cap must be flagged truncated")
	}
	for key, value := range result.Parameters {
		if !utf8.ValidString(value) {
			t.Fatalf("parameter %s = %q is not valid UTF-8", key, value)
		}
	}
	if result.Parameters["path"] != "/tmp/caf" {
		t.Fatalf("path = %q, want the rune-clean prefix /tmp/caf", result.Parameters["path"])
	}
}

func TestParameterExtraction(t *testing.T) {
	c := testClassifier()

	result := c.Classify("copy ~/Documents/notes.txt to /tmp/backup")
	if result.Parameters["path"] != "~/Documents/notes.txt" {
		t.Fatalf("path = %q", result.Parameters["path"])
	}
	if !strings.Contains(result.Parameters["paths"], "/tmp/backup") {
		t.Fatalf("paths = %q", result.Parameters["paths"])
	}

	result = c.Classify("open Safari")
	if result.Parameters["app"] != "Safari" {
		t.Fatalf("app = %q", result.Parameters["app"])
	}

	result = c.Classify("remind me in 10 minutes")
	if result.Parameters["duration"] != "10 minutes" {
		t.Fatalf("duration = %q", result.Parameters["duration"])
	}
}

func TestSuggestedRoutes(t *testing.T) {
	c := testClassifier()

	if r := c.Classify("what's my battery level"); r.SuggestedRoute != RouteLocal {
		t.Fatalf("systemQuery route = %s", r.SuggestedRoute)
	}
	if r := c.Classify("automate my morning workflow"); r.SuggestedRoute != RouteCloud {
		t.Fatalf("automation route = %s", r.SuggestedRoute)
	}
	if r := c.Classify("summarize this passage"); r.SuggestedRoute != RouteHybrid {
		t.Fatalf("textProcessing route = %s", r.SuggestedRoute)
	}
}

func TestQuickClassify(t *testing.T) {
	c := testClassifier()

	if r := c.QuickClassify("help"); r == nil || r.TaskType != TaskHelp {
		t.Fatalf("QuickClassify(help) = %+v", r)
	}

	// Long inputs defer to the full pass.
	if r := c.QuickClassify("copy all the files from my documents folder into the backup and then rename each one"); r != nil {
		t.Fatal("long input must return nil")
	}

	// Ambiguous inputs (multiple candidate task types) defer as well.
	if r := c.QuickClassify("open help"); r != nil {
		t.Fatal("ambiguous input must return nil")
	}
}

func TestClassifyNeverPanicsOnOddInput(t *testing.T) {
	c := testClassifier()
	for _, input := range []string{"\x00\x01", "///", "....", strings.Repeat("🙂", 500)} {
		if r := c.Classify(input); r == nil {
			t.Fatalf("Classify(%q) returned nil", input)
		}
	}
}
