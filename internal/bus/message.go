package bus

// Namespace groups messages by the subsystem they belong to.
type Namespace int

const (
	NamespacePlayback Namespace = iota
	NamespacePlaylist
	NamespaceAudio
	NamespaceConfig
	NamespaceLibrary
	NamespaceMetadata
	NamespaceIntegration
	NamespaceCast
)

// String returns the namespace name.
func (n Namespace) String() string {
	switch n {
	case NamespacePlayback:
		return "playback"
	case NamespacePlaylist:
		return "playlist"
	case NamespaceAudio:
		return "audio"
	case NamespaceConfig:
		return "config"
	case NamespaceLibrary:
		return "library"
	case NamespaceMetadata:
		return "metadata"
	case NamespaceIntegration:
		return "integration"
	case NamespaceCast:
		return "cast"
	default:
		return "unknown"
	}
}

// Message is anything that travels on the bus.
//
// Messages are values. Once sent they are shared by every receiver, so a
// sender must not modify slices or maps it put into a message.
type Message interface {
	Namespace() Namespace
}
