// Package tools implements the Toolkit Interceptor & Approval Gate
// : every tool call goes through a typed middleware that
// emits activation/deactivation events and enforces a closed approval
// policy table before sensitive calls.
package tools

import "strings"

// Tier is the closed set of approval sensitivity classes.
type Tier string

const (
	TierAlwaysAsk Tier = "always_ask"
	TierAskOnce   Tier = "ask_once"
	TierNeverAsk  Tier = "never_ask"
)

// alwaysAskMethods / askOnceMethods / neverAskMethods are substring
// keyword sets matched against "toolkit:method" (case-insensitive),
// realizing the closed policy table in spec §4.5.
var alwaysAskMethods = []string{
	"terminal_exec", "exec_command", "run_command", "shell",
	"code_execution", "execute_code", "run_code",
	"gui", "automation", "screenshot_click",
	"email_send", "send_email",
	"file_delete", "delete_file", "file_move", "move_file",
}

var askOnceMethods = []string{
	"file_write", "file_append", "write_to_file", "append_to_file",
	"code_repo", "git_commit", "git_push", "repo_mutation",
	"doc_mutation", "document_write",
	"upload",
}

var neverAskMethods = []string{
	"list", "search", "browse", "read", "get", "view",
}

// ClassifyTier maps a toolkit/method pair to its approval tier. The
// order always_ask → ask_once → never_ask is deliberate: a method name
// like "file_delete_after_search" must not fall through to the
// read-only bucket just because it also contains "search".
func ClassifyTier(toolkitName, methodName string) Tier {
	key := strings.ToLower(toolkitName + ":" + methodName)
	if matchesAny(key, alwaysAskMethods) {
		return TierAlwaysAsk
	}
	if matchesAny(key, askOnceMethods) {
		return TierAskOnce
	}
	if matchesAny(key, neverAskMethods) {
		return TierNeverAsk
	}
	// Unclassified methods default to the safest tier: ask every time.
	return TierAlwaysAsk
}

func matchesAny(key string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(key, kw) {
			return true
		}
	}
	return false
}

// ToolkitKey is the "ask-once" remembered-decision key : composed of both the
// toolkit and method name so two methods on one toolkit remember
// independently.
func ToolkitKey(toolkitName, methodName string) string {
	return toolkitName + ":" + methodName
}
