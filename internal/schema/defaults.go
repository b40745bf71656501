package schema

import "github.com/yekaditya11/shindler-oicc-sub001/internal/models"

// Built-in schema definitions for the reporting systems currently feeding the
// platform. Column labels are the exact headers the source systems export;
// per-file drift against these lists is absorbed by the detector thresholds.

var srsColumns = []string{
	"Event Id",
	"Reporter Name",
	"Reporter ID",
	"Reported Date",
	"Reported Time",
	"Event Type",
	"Event Sub Type",
	"Event Description",
	"Region",
	"Country",
	"Branch",
	"City",
	"Site Name",
	"Site Reference",
	"Location",
	"Location Details",
	"Employee ID",
	"Employee Name",
	"Employee Type",
	"Designation",
	"Date Of Joining",
	"Incident Date",
	"Incident Time",
	"Injury Type",
	"Body Part Affected",
	"Severity",
	"Work Stopped",
	"Work Stoppage Hours",
	"First Aid Given",
	"Medical Treatment",
	"Lost Time Injury",
	"Days Lost",
	"Root Cause",
	"Immediate Action",
	"Corrective Action",
	"Action Owner",
	"Action Due Date",
	"Action Status",
	"Investigation Status",
	"Closure Date",
	"Status",
}

var niTctColumns = []string{
	"Event Id",
	"Reporter Name",
	"Reported Date",
	"Reported Time",
	"Event Type",
	"Region",
	"Country",
	"Branch",
	"City",
	"Site Name",
	"Site Reference",
	"Location",
	"Job Number",
	"Activity Type",
	"Observation Category",
	"Unsafe Act",
	"Unsafe Condition",
	"Hazard Description",
	"Potential Severity",
	"Likelihood",
	"Action Taken",
	"Action Owner",
	"Action Due Date",
	"Action Status",
	"Work Stopped",
	"Work Stoppage Hours",
	"Serious Near Miss",
	"Comments",
	"Closure Date",
	"Status",
}

// Enrichment columns appended by the augmentation pipeline. The first four
// double as the detector's augmentation indicators.
var augmentationColumns = []string{
	"Weather Condition",
	"Weather Severity Index",
	"Employee Tenure Months",
	"Site Risk Index",
	"Temperature",
	"Humidity",
	"Employee Age",
	"Site Risk Category",
}

// IndicatorColumns is the fixed set of labels meaningful only to augmented
// schemas.
var IndicatorColumns = augmentationColumns[:4]

func withAugmentation(base []string) []string {
	out := make([]string, 0, len(base)+len(augmentationColumns))
	out = append(out, base...)
	out = append(out, augmentationColumns...)
	return out
}

// DefaultDefinitions returns the built-in schema set: each reporting system's
// raw export plus its augmented twin.
func DefaultDefinitions() []models.SchemaDefinition {
	return []models.SchemaDefinition{
		{Name: "srs", ExpectedColumns: srsColumns},
		{Name: "ni_tct", ExpectedColumns: niTctColumns},
		{Name: "srs_augmented", ExpectedColumns: withAugmentation(srsColumns), IsAugmented: true, BaseSchema: "srs"},
		{Name: "ni_tct_augmented", ExpectedColumns: withAugmentation(niTctColumns), IsAugmented: true, BaseSchema: "ni_tct"},
	}
}
