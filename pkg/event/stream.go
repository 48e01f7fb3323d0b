package event

// Burger events are retained on this JetStream stream when streaming is
// enabled.
const StreamName = "BURGER_EVENTS"

var StreamSubjects = []string{OrdersSubmittedTopic, FeedSnapshotTopic}
