package wad

// ProgressStage identifies a phase of opening an archive.
type ProgressStage int

const (
	StageReadingDirectory ProgressStage = iota
	StageDetectingTypes
	StageDetectingMaps
)

func (s ProgressStage) String() string {
	switch s {
	case StageReadingDirectory:
		return "reading directory"
	case StageDetectingTypes:
		return "detecting entry types"
	case StageDetectingMaps:
		return "detecting maps"
	default:
		return "unknown"
	}
}

// ProgressEvent reports how far a stage has got. Done counts from 0 to Total.
type ProgressEvent struct {
	Stage   ProgressStage
	Done    int
	Total   int
	Message string
}

// ProgressFunc receives progress events. It is called synchronously and must not modify the
// archive being opened.
type ProgressFunc func(ProgressEvent)

func (c *config) report(stage ProgressStage, done, total int, msg string) {
	if c.progress == nil {
		return
	}
	c.progress(ProgressEvent{Stage: stage, Done: done, Total: total, Message: msg})
}
