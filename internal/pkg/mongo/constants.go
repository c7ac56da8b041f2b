package mongo

const (
	store           = "callsight"
	callTable       = "calls"
	transcriptTable = "transcripts"
	insightsTable   = "insights"
	tenantTable     = "tenants"
	counterTable    = "counters"
)

var indexData = []IndexData{
	newIndexData(callTable, []string{"ID"}, true),
	newIndexData(callTable, []string{"status"}, false),
	newIndexData(callTable, []string{"tenantID", "blobKey"}, false),
	newIndexData(transcriptTable, []string{"callID"}, true),
	newIndexData(insightsTable, []string{"callID"}, true),
	newIndexData(tenantTable, []string{"ID"}, true)}
