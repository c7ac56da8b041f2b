package status

//Status represents call processing lifecycle state
type Status int

const (
	//Processing - call is registered and waits for or is in the pipeline
	Processing Status = iota + 1
	//Processed - transcript and insights are ready
	Processed
	//Failed - processing gave up, transcript holds the error text
	Failed
)

var (
	statusName = map[Status]string{Processing: "PROCESSING", Processed: "PROCESSED",
		Failed: "FAILED"}
	nameStatus = map[string]Status{"PROCESSING": Processing, "PROCESSED": Processed,
		"FAILED": Failed}
)

//Name returns string representation of the status
func Name(st Status) string {
	return statusName[st]
}

//From parses status from string, returns 0 for unknown value
func From(st string) Status {
	return nameStatus[st]
}

//Terminal indicates no further transitions are allowed
func Terminal(st Status) bool {
	return st == Processed || st == Failed
}
