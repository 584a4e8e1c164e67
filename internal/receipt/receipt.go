// Package receipt formats and prints the kiosk's 32-column paper receipts.
package receipt

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

const lineWidth = 32

// Receipt carries the fields printed after a successful request.
type Receipt struct {
	ReferenceNumber string  `json:"referenceNumber"`
	FullName        string  `json:"fullName"`
	Document        string  `json:"document"`
	Amount          float64 `json:"amount"`
	Status          string  `json:"status"`
	PaymentStatus   string  `json:"paymentStatus"`
}

// Format lays the receipt out for a 32-column thermal printer.
func Format(r Receipt) string {
	sep := strings.Repeat("-", lineWidth)
	var b strings.Builder
	b.WriteString("\n")
	b.WriteString(center("*** MUNICIPALITY RECEIPT ***"))
	b.WriteString("\n" + sep + "\n")
	b.WriteString(field("Reference ID", r.ReferenceNumber))
	b.WriteString(field("Full Name", r.FullName))
	b.WriteString(field("Document", r.Document))
	b.WriteString(field("Amount", fmt.Sprintf("PHP%g", r.Amount)))
	b.WriteString(field("Status", r.Status))
	b.WriteString(field("Payment", r.PaymentStatus))
	b.WriteString(sep + "\n")
	b.WriteString(center("Thank you!"))
	b.WriteString("\n")
	return b.String()
}

// wrap splits text into lines no wider than the printer.
func wrap(text string) []string {
	if text == "" {
		return []string{""}
	}
	var lines []string
	current := ""
	for _, word := range strings.Fields(text) {
		candidate := strings.TrimSpace(current + " " + word)
		if len(candidate) <= lineWidth {
			current = candidate
			continue
		}
		if current != "" {
			lines = append(lines, current)
		}
		current = word
	}
	if current != "" {
		lines = append(lines, current)
	}
	if len(lines) == 0 {
		return []string{""}
	}
	return lines
}

func center(text string) string {
	lines := wrap(text)
	for i, line := range lines {
		pad := (lineWidth - len(line)) / 2
		if pad > 0 {
			lines[i] = strings.Repeat(" ", pad) + line
		}
	}
	return strings.Join(lines, "\n")
}

func field(label, value string) string {
	return strings.Join(wrap(label+": "+value), "\n") + "\n"
}

// Printer spools receipts to a named system printer.
type Printer struct {
	Name string
}

// Print writes the formatted receipt to a spool file and hands it to lp.
func (p *Printer) Print(ctx context.Context, r Receipt) error {
	if p == nil || p.Name == "" {
		return fmt.Errorf("no printer configured")
	}

	dir, err := os.MkdirTemp("", "receipt-*")
	if err != nil {
		return fmt.Errorf("failed to create spool dir: %w", err)
	}
	defer os.RemoveAll(dir)

	spool := filepath.Join(dir, "receipt.txt")
	if err := os.WriteFile(spool, []byte(Format(r)), 0o600); err != nil {
		return fmt.Errorf("failed to write spool file: %w", err)
	}

	cmd := exec.CommandContext(ctx, "lp", "-d", p.Name, spool)
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("failed to print receipt: %w: %s", err, strings.TrimSpace(string(out)))
	}
	return nil
}
