package service

import (
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"

	"clientvault/internal/model"
	"clientvault/internal/storage"
)

// Client Info.txt is a staff-editable summary kept at each workspace
// root. Unknown lines are preserved; known labels are rewritten in
// place so hand-written notes survive a structure re-apply.

func clientInfoTemplate(clientType model.ClientType) string {
	return fmt.Sprintf(`Client Type: %s
Client Status: Active
Client Tag:
Directors Count: 1
Bookkeeping Required: No
VAT Registered: No
Payroll Required: No
MTD Required (ITSA): No
Other extra-service: No

UTR:
CRN:
VAT Number:
PAYE Reference:
Notes:
`, clientType)
}

func writeClientInfo(ws *storage.Workspace, clientType model.ClientType, flags model.ServiceFlags) error {
	text, err := readClientInfo(ws)
	if err != nil {
		if !os.IsNotExist(err) {
			return err
		}
		text = clientInfoTemplate(clientType)
	}

	yn := func(b bool) string {
		if b {
			return "Yes"
		}
		return "No"
	}

	text = setInfoLine(text, "Client Type", string(clientType))
	text = setInfoLine(text, "Client Status", "Active")
	text = setInfoLine(text, "Directors Count", fmt.Sprintf("%d", flags.Directors))
	text = setInfoLine(text, "Bookkeeping Required", yn(flags.Bookkeeping))
	text = setInfoLine(text, "VAT Registered", yn(flags.VAT))
	text = setInfoLine(text, "Payroll Required", yn(flags.PAYE))
	text = setInfoLine(text, "MTD Required (ITSA)", yn(flags.MTD))
	text = setInfoLine(text, "Other extra-service", yn(flags.Extra))
	text = setInfoLine(text, "Client Tag", flags.Tag(clientType))

	return ws.WriteFile(clientInfoFile, []byte(text))
}

func readClientInfo(ws *storage.Workspace) (string, error) {
	file, err := ws.OpenForRead(clientInfoFile)
	if err != nil {
		return "", err
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return "", err
	}

	return string(data), nil
}

func setInfoLine(text string, label string, value string) string {
	pattern := regexp.MustCompile(`(?m)^` + regexp.QuoteMeta(label) + `:.*$`)
	line := label + ": " + value
	if pattern.MatchString(text) {
		return pattern.ReplaceAllString(text, line)
	}

	return line + "\n" + strings.TrimLeft(text, "\n")
}
