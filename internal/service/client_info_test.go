package service

import (
	"testing"

	"github.com/stretchr/testify/require"

	"clientvault/internal/model"
)

func TestWriteClientInfo(t *testing.T) {
	t.Parallel()

	t.Run("creates the template on first write", func(t *testing.T) {
		ws := newTestWorkspace(t, "Jane Doe")
		flags := model.ServiceFlags{Bookkeeping: true, VAT: true, Directors: 1}

		require.NoError(t, writeClientInfo(ws, model.TypeSelfEmployed, flags))

		text, err := readClientInfo(ws)
		require.NoError(t, err)
		require.Contains(t, text, "Client Type: Self-Employed")
		require.Contains(t, text, "Bookkeeping Required: Yes")
		require.Contains(t, text, "VAT Registered: Yes")
		require.Contains(t, text, "Payroll Required: No")
		require.Contains(t, text, "Client Tag: Self-Employed | BK:Y | VAT:Y | PAYE:N | MTD:N | EXTRA:N")
		require.Contains(t, text, "UTR:")
	})

	t.Run("rewrites known lines and keeps hand edits", func(t *testing.T) {
		ws := newTestWorkspace(t, "Acme Ltd")
		require.NoError(t, writeClientInfo(ws, model.TypeLimitedCompany, model.ServiceFlags{Directors: 2}))

		// Staff fill in reference numbers by hand.
		text, err := readClientInfo(ws)
		require.NoError(t, err)
		edited := setInfoLine(text, "UTR", "1234567890")
		require.NoError(t, ws.WriteFile("Client Info.txt", []byte(edited)))

		require.NoError(t, writeClientInfo(ws, model.TypeLimitedCompany, model.ServiceFlags{Directors: 3, PAYE: true}))

		updated, err := readClientInfo(ws)
		require.NoError(t, err)
		require.Contains(t, updated, "UTR: 1234567890")
		require.Contains(t, updated, "Directors Count: 3")
		require.Contains(t, updated, "Payroll Required: Yes")
		require.Contains(t, updated, "| DIR:3")
	})
}

func TestSetInfoLine(t *testing.T) {
	t.Parallel()

	t.Run("replaces an existing line", func(t *testing.T) {
		out := setInfoLine("Status: Old\nNotes: keep me\n", "Status", "New")
		require.Equal(t, "Status: New\nNotes: keep me\n", out)
	})

	t.Run("prepends a missing label", func(t *testing.T) {
		out := setInfoLine("Notes: keep me\n", "Status", "New")
		require.Equal(t, "Status: New\nNotes: keep me\n", out)
	})
}
