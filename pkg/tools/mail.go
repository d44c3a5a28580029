package tools

import (
	"bufio"
	"context"
	"fmt"
	"net/mail"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"

	"github.com/lobo-cli/lobo/pkg/permission"
	"github.com/lobo-cli/lobo/pkg/registry"
)

func mailTools(opts Options) []registry.Spec {
	return []registry.Spec{
		{
			Name:        "list_mailboxes",
			Description: "List all available email mailboxes from the local Thunderbird profile.",
			Tier:        permission.RiskSafe,
			Category:    registry.CategoryMail,
			Parameters:  objectSchema(map[string]interface{}{}),
			Handler:     listMailboxesHandler(opts.MailDir),
		},
		{
			Name:        "read_mailbox",
			Description: "Read the most recent emails from a specified Thunderbird mailbox.",
			Tier:        permission.RiskSafe,
			Category:    registry.CategoryMail,
			Parameters: objectSchema(map[string]interface{}{
				"mailbox_name": stringProp("The name of the mailbox to read (e.g. 'Inbox')"),
				"count":        intProp("The maximum number of emails to read (default: 10)"),
			}, "mailbox_name"),
			Handler: readMailboxHandler(opts.MailDir),
		},
	}
}

// mailRoots returns the directories that may contain mbox files. An explicit
// override wins; otherwise the platform's Thunderbird profile is probed.
func mailRoots(override string) ([]string, error) {
	if override != "" {
		return []string{override}, nil
	}

	profile, err := findThunderbirdProfile()
	if err != nil {
		return nil, err
	}
	return []string{
		filepath.Join(profile, "ImapMail"),
		filepath.Join(profile, "Mail"),
	}, nil
}

func findThunderbirdProfile() (string, error) {
	var base string
	switch runtime.GOOS {
	case "windows":
		appData := os.Getenv("APPDATA")
		if appData == "" {
			return "", fmt.Errorf("APPDATA is not set")
		}
		base = filepath.Join(appData, "Thunderbird", "Profiles")
	case "darwin":
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		base = filepath.Join(home, "Library", "Thunderbird", "Profiles")
	default:
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		base = filepath.Join(home, ".thunderbird")
	}

	entries, err := os.ReadDir(base)
	if err != nil {
		return "", fmt.Errorf("thunderbird profile not found: %w", err)
	}

	var fallback string
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		if strings.HasSuffix(entry.Name(), ".default") {
			return filepath.Join(base, entry.Name()), nil
		}
		if fallback == "" {
			fallback = filepath.Join(base, entry.Name())
		}
	}
	if fallback != "" {
		return fallback, nil
	}
	return "", fmt.Errorf("no thunderbird profile directories under %s", base)
}

func listMailboxesHandler(mailDir string) registry.Handler {
	return func(ctx context.Context, args map[string]interface{}) (*registry.HandlerResult, error) {
		roots, err := mailRoots(mailDir)
		if err != nil {
			return nil, err
		}

		mailboxes := []string{}
		for _, root := range roots {
			if _, err := os.Stat(root); err != nil {
				continue
			}
			err := filepath.Walk(root, func(path string, info os.FileInfo, walkErr error) error {
				if walkErr != nil || info.IsDir() {
					return nil
				}
				// Mbox files usually have no extension, sometimes .mbox.
				name := info.Name()
				if !strings.Contains(name, ".") || strings.HasSuffix(name, ".mbox") {
					rel, err := filepath.Rel(root, path)
					if err == nil {
						mailboxes = append(mailboxes, rel)
					}
				}
				return nil
			})
			if err != nil {
				return nil, fmt.Errorf("failed to scan mailboxes: %w", err)
			}
		}
		sort.Strings(mailboxes)

		return &registry.HandlerResult{
			Payload: map[string]interface{}{
				"mailboxes": mailboxes,
				"count":     len(mailboxes),
			},
			Summary: fmt.Sprintf("Found %d mailboxes", len(mailboxes)),
		}, nil
	}
}

func readMailboxHandler(mailDir string) registry.Handler {
	return func(ctx context.Context, args map[string]interface{}) (*registry.HandlerResult, error) {
		name := stringArg(args, "mailbox_name")
		if name == "" {
			return nil, fmt.Errorf("mailbox_name is required")
		}
		count := intArg(args, "count", 10)
		if count < 1 {
			count = 1
		}

		roots, err := mailRoots(mailDir)
		if err != nil {
			return nil, err
		}

		var mailboxPath string
		for _, root := range roots {
			candidate := filepath.Join(root, name)
			if _, err := os.Stat(candidate); err == nil {
				mailboxPath = candidate
				break
			}
		}
		if mailboxPath == "" {
			return nil, fmt.Errorf("mailbox %q not found", name)
		}

		headers, err := readMboxHeaders(mailboxPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read mailbox: %w", err)
		}

		// Latest messages first.
		emails := []map[string]interface{}{}
		for i := len(headers) - 1; i >= 0 && len(emails) < count; i-- {
			emails = append(emails, map[string]interface{}{
				"id":      i,
				"subject": headers[i].subject,
				"from":    headers[i].from,
				"date":    headers[i].date,
			})
		}

		return &registry.HandlerResult{
			Payload: map[string]interface{}{
				"mailbox": name,
				"emails":  emails,
				"count":   len(emails),
			},
			Summary: fmt.Sprintf("Read %d emails from %s", len(emails), name),
		}, nil
	}
}

type mboxHeader struct {
	subject string
	from    string
	date    string
}

// readMboxHeaders scans an mbox file and parses each message's headers. Only
// headers are kept; bodies are skipped.
func readMboxHeaders(path string) ([]mboxHeader, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var messages []mboxHeader
	var current strings.Builder
	inMessage := false

	flush := func() {
		if !inMessage {
			return
		}
		msg, err := mail.ReadMessage(strings.NewReader(current.String() + "\r\n"))
		if err == nil {
			messages = append(messages, mboxHeader{
				subject: msg.Header.Get("Subject"),
				from:    msg.Header.Get("From"),
				date:    msg.Header.Get("Date"),
			})
		}
		current.Reset()
	}

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	inHeaders := false
	for scanner.Scan() {
		line := scanner.Text()
		if strings.HasPrefix(line, "From ") {
			flush()
			inMessage = true
			inHeaders = true
			continue
		}
		if !inMessage || !inHeaders {
			continue
		}
		if line == "" {
			// End of headers; skip the body until the next separator.
			inHeaders = false
			continue
		}
		current.WriteString(line)
		current.WriteString("\r\n")
	}
	flush()

	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return messages, nil
}
