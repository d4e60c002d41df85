package config

type WorkerKeyStruct struct {
	RevalidateExamsQueue string
}

var WorkerKey = &WorkerKeyStruct{
	RevalidateExamsQueue: "revalidate_exams_queue",
}

// RevalidateAllExams is the queue payload asking the readiness worker to
// re-check every exam instead of a single id.
const RevalidateAllExams = "*"
