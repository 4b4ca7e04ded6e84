package service

import "clientvault/internal/model"

// Folder names are configuration, not logic: the numbered prefixes give
// every client the same stable sort order in a plain file browser.
const (
	proofOfIDDir     = "00 Proof of ID"
	directorsDir     = "00 Proof of ID - Directors"
	bookkeepingDir   = "01 Bookkeeping"
	complianceDir    = "02 Compliance"
	otherServicesDir = "03 Other Services"
	extraServiceDir  = "01 Other extra-service"
	archiveDir       = "99 Archive"
	trashDirName     = "Trash"

	selfAssessmentDir = "01 Self Assessment"
	propertyIncomeDir = "02 Property Income"
	corporationTaxDir = "01 Corporation Tax"
	accountsDir       = "02 Accounts"
	vatDir            = "03 VAT"
	payeDir           = "04 PAYE"

	clientInfoFile = "Client Info.txt"

	// Reserved names at the clients base, never listed as workspaces.
	archivedClientsDir = "99 Archived Clients"
)

// mtdDirName differs per client type because the compliance folders are
// numbered relative to their siblings.
func mtdDirName(clientType model.ClientType) string {
	if clientType == model.TypeLandlord {
		return "03 MTD (ITSA)"
	}

	return "02 MTD (ITSA)"
}

var identityPack = []string{
	"01 Passport - BRP - eVisa",
	"02 Proof of Address",
	"03 Signed Engagement Letter",
}

var selfAssessmentSubfolders = []string{
	"01 Income",
	"02 Expenses",
	"03 Bank",
	"04 CIS (if any)",
	"05 Pensions & Benefits",
	"06 Other Documents",
	"99 Final & Submitted",
}

var propertySubfolders = []string{
	"01 Rental Income",
	"02 Expenses",
	"03 Mortgage Interest",
	"04 Letting Agent",
	"99 Final & Submitted",
}

var corporationTaxSubfolders = []string{
	"01 Trial Balance",
	"02 Adjustments",
	"03 Computation",
	"04 CT600 & iXBRL",
	"99 Final & Submitted",
}

var accountsSubfolders = []string{
	"01 Bank",
	"02 Sales",
	"03 Purchases",
	"04 Payroll",
	"05 Fixed Assets",
	"99 Year End Pack",
}

var extraServiceSubfolders = []string{
	"01 Client Documents",
	"02 Our Work (Drafts)",
	"03 Submitted",
	"99 Outcome",
}

// bookkeepingSubfolders lists the per-tax-year bookkeeping branches each
// client type gets when the bookkeeping flag is on.
var bookkeepingSubfolders = map[model.ClientType][]string{
	model.TypeSelfEmployed:   {"01 Source Documents", "02 Bank", "03 Income", "04 Expenses"},
	model.TypeLandlord:       {"01 Bank", "02 Rental Income", "03 Expenses"},
	model.TypeLimitedCompany: {"01 Bank", "02 Sales", "03 Purchases"},
}
