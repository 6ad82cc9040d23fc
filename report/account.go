package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/vartija/vartija/types"
)

var userHeader = []string{
	"user_name", "console_access", "mfa_enabled", "active_keys",
	"oldest_key_age_days", "last_password_use",
}

// WriteAccountAudit renders the IAM audit in the requested format.
// JSON carries the whole audit document; CSV and table show the
// per-user view.
func WriteAccountAudit(w io.Writer, format Format, audit types.AccountAudit) error {
	switch format {
	case FormatJSON:
		return writeJSON(w, audit)
	case FormatCSV:
		return writeUsersCSV(w, audit.Users)
	default:
		return writeUsersTable(w, audit.Users)
	}
}

func writeUsersCSV(w io.Writer, users []types.IAMUser) error {
	writer := csv.NewWriter(w)

	if err := writer.Write(userHeader); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}

	for _, user := range users {
		row := []string{
			user.UserName,
			strconv.FormatBool(user.HasConsoleAccess),
			strconv.FormatBool(user.MFAEnabled),
			strconv.Itoa(activeKeyCount(user)),
			strconv.Itoa(oldestKeyAge(user)),
			formatTimePtr(user.LastPasswordUse),
		}
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("failed to write CSV row: %w", err)
		}
	}

	writer.Flush()
	return writer.Error()
}

func writeUsersTable(w io.Writer, users []types.IAMUser) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)

	fmt.Fprintln(tw, "USER\tCONSOLE\tMFA\tACTIVE KEYS\tOLDEST KEY (DAYS)")
	for _, user := range users {
		fmt.Fprintf(tw, "%s\t%t\t%t\t%d\t%d\n",
			user.UserName, user.HasConsoleAccess, user.MFAEnabled,
			activeKeyCount(user), oldestKeyAge(user))
	}

	return tw.Flush()
}

func activeKeyCount(user types.IAMUser) int {
	count := 0
	for _, key := range user.AccessKeys {
		if key.Status == "Active" {
			count++
		}
	}
	return count
}

func oldestKeyAge(user types.IAMUser) int {
	oldest := 0
	for _, key := range user.AccessKeys {
		if key.AgeDays > oldest {
			oldest = key.AgeDays
		}
	}
	return oldest
}

func formatTimePtr(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
