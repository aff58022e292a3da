package bus

// Messages owned by collaborators outside the playback core. The core only
// reacts to the few it needs and passes the rest through untouched.

// PlaylistReplace replaces the queue and starts playing at Start.
type PlaylistReplace struct {
	Paths []string
	Start int
}

// PlaylistAppend adds tracks at the end of the queue.
type PlaylistAppend struct {
	Paths []string
}

// PlaylistChanged reports the queue after any modification.
type PlaylistChanged struct {
	Paths []string
	Index int
}

// LibraryTrackSelected asks for a library track to be played now.
type LibraryTrackSelected struct {
	Path string
}

// MetadataUpdated carries display tags for a track.
type MetadataUpdated struct {
	Path   string
	Title  string
	Artist string
	Album  string
}

// IntegrationStatus is a free-form status line from an integration.
type IntegrationStatus struct {
	Service string
	Status  string
}

// CastDeviceSelected reports the cast target chosen by the user.
type CastDeviceSelected struct {
	Name string
}

func (PlaylistReplace) Namespace() Namespace      { return NamespacePlaylist }
func (PlaylistAppend) Namespace() Namespace       { return NamespacePlaylist }
func (PlaylistChanged) Namespace() Namespace      { return NamespacePlaylist }
func (LibraryTrackSelected) Namespace() Namespace { return NamespaceLibrary }
func (MetadataUpdated) Namespace() Namespace      { return NamespaceMetadata }
func (IntegrationStatus) Namespace() Namespace    { return NamespaceIntegration }
func (CastDeviceSelected) Namespace() Namespace   { return NamespaceCast }
