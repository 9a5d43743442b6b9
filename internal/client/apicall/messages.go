package apicall

// Messages resolves the user-facing text for a failure kind.
type Messages interface {
	Message(k Kind) string
}

// MessageTable is a Messages backed by a map. Kinds missing from the map fall
// back to the KindTransport entry.
type MessageTable map[Kind]string

func (t MessageTable) Message(k Kind) string {
	if m, ok := t[k]; ok {
		return m
	}
	return t[KindTransport]
}

// DefaultMessages is the English message table.
var DefaultMessages = MessageTable{
	KindNoConnectivity: "Please check your network connection",
	KindHTTP:           "Something went wrong, please try again",
	KindTransport:      "Something went wrong, please try again",
}
