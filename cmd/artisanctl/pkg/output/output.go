// Package output renders marketplace records for the terminal.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/chennaiartisanal/provenance/market/collection"
	"github.com/chennaiartisanal/provenance/market/gateway"
	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/ethereum/go-ethereum/common"
	"github.com/olekukonko/tablewriter"
)

func newTable(w io.Writer, header ...string) *tablewriter.Table {
	t := tablewriter.NewWriter(w)
	t.SetHeader(header)
	t.SetAutoWrapText(false)
	t.SetBorder(false)
	t.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	t.SetAlignment(tablewriter.ALIGN_LEFT)
	return t
}

func age(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return humanize.Time(t)
}

func Items(w io.Writer, entries []collection.Entry) {
	if len(entries) == 0 {
		fmt.Fprintln(w, "No items found")
		return
	}
	t := newTable(w, "ID", "Name", "Materials", "Artisan", "Owner", "Created", "Hidden")
	for _, e := range entries {
		t.Append([]string{
			strconv.FormatUint(e.TokenID, 10),
			e.Name,
			e.Materials,
			e.Artisan.Hex(),
			e.Owner.Hex(),
			age(e.CreatedAt),
			strconv.FormatBool(e.Hidden),
		})
	}
	t.Render()
}

func Item(w io.Writer, e *collection.Entry) {
	fmt.Fprintln(w, "ID:         ", e.TokenID)
	fmt.Fprintln(w, "Name:       ", e.Name)
	fmt.Fprintln(w, "Description:", e.Description)
	fmt.Fprintln(w, "Materials:  ", e.Materials)
	fmt.Fprintln(w, "Artisan:    ", e.Artisan.Hex())
	fmt.Fprintln(w, "Owner:      ", e.Owner.Hex())
	fmt.Fprintln(w, "Created:    ", e.CreatedAt.Format(time.RFC3339), "("+age(e.CreatedAt)+")")
	fmt.Fprintln(w, "Token URI:  ", e.TokenURI)
	fmt.Fprintln(w, "Hidden:     ", flag(e.Hidden, color.FgYellow))
	if len(e.Provenance) == 0 {
		return
	}
	fmt.Fprintln(w, "Provenance:")
	for i, r := range e.Provenance {
		fmt.Fprintf(w, "  %d. %s\n", i+1, r)
	}
}

func Artisans(w io.Writer, artisans []gateway.Artisan) {
	if len(artisans) == 0 {
		fmt.Fprintln(w, "No artisans found")
		return
	}
	t := newTable(w, "Address", "Name", "Location", "Specialization", "Registered")
	for _, a := range artisans {
		t.Append([]string{
			a.Address.Hex(),
			a.Name,
			a.Location,
			a.Specialization,
			age(a.RegisteredAt),
		})
	}
	t.Render()
}

func Artisan(w io.Writer, a *gateway.Artisan) {
	fmt.Fprintln(w, "Address:       ", a.Address.Hex())
	fmt.Fprintln(w, "Name:          ", a.Name)
	fmt.Fprintln(w, "Location:      ", a.Location)
	fmt.Fprintln(w, "Specialization:", a.Specialization)
	fmt.Fprintln(w, "Contact:       ", a.ContactInfo)
	fmt.Fprintln(w, "Verified:      ", flag(a.IsVerified, color.FgGreen))
	fmt.Fprintln(w, "Registered:    ", a.RegisteredAt.Format(time.RFC3339), "("+age(a.RegisteredAt)+")")
}

func History(w io.Writer, events []gateway.Event) {
	if len(events) == 0 {
		fmt.Fprintln(w, "No events found")
		return
	}
	t := newTable(w, "Block", "Event", "From", "To", "Detail", "Tx")
	for _, ev := range events {
		t.Append([]string{
			humanize.Comma(int64(ev.BlockNumber)),
			string(ev.Kind),
			addressOrDash(ev.From),
			addressOrDash(ev.To),
			ev.Detail,
			ev.TxHash.Hex(),
		})
	}
	t.Render()
}

// flag renders b, colouring true with attr when the output is a terminal.
func flag(b bool, attr color.Attribute) string {
	if !b {
		return "false"
	}
	return color.New(attr).Sprint("true")
}

func addressOrDash(a common.Address) string {
	if a == (common.Address{}) {
		return "-"
	}
	return a.Hex()
}

// JSON writes v indented.
func JSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// Receipt prints the confirmation of a ledger write.
func Receipt(w io.Writer, what string, txHash fmt.Stringer, block uint64) {
	fmt.Fprintln(w, strings.TrimSpace(what), color.GreenString("confirmed"), "in block", humanize.Comma(int64(block)))
	fmt.Fprintln(w, "Tx:", txHash.String())
}
