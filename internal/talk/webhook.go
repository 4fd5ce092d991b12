package talk

import (
	"encoding/json"
	"errors"
	"net/url"
	"path"
	"regexp"
	"strconv"
	"strings"
)

// ErrSkip marks a webhook delivery that verified fine but carries nothing
// to act on (bot's own message, system activity, empty content).
var ErrSkip = errors.New("talk: activity not actionable")

// Activity is the raw webhook payload posted by the Talk server.
type Activity struct {
	Type   string `json:"type"`
	Actor  Entity `json:"actor"`
	Object Object `json:"object"`
	Target Entity `json:"target"`
}

// Entity identifies the actor or target of an activity.
type Entity struct {
	Type string `json:"type"`
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Object carries the message itself.
type Object struct {
	Type        string `json:"type"`
	ID          string `json:"id"`
	Name        string `json:"name"`
	Content     string `json:"content"`
	MediaType   string `json:"mediaType"`
	MessageType string `json:"messageType"`
}

// AudioFile describes an audio attachment resolved to a download URL.
type AudioFile struct {
	URL      string
	Name     string
	Mimetype string
}

// Message is one actionable chat message extracted from an Activity.
type Message struct {
	Token     string
	MessageID int
	Actor     string
	ActorID   string
	Text      string
	Audio     *AudioFile
}

// fileParam is the shape of a file reference inside message parameters.
type fileParam struct {
	Type     string `json:"type"`
	ID       string `json:"id"`
	Name     string `json:"name"`
	Path     string `json:"path"`
	Link     string `json:"link"`
	Mimetype string `json:"mimetype"`
}

// filePattern matches inline file references like {file:123|name:memo.mp3}.
var filePattern = regexp.MustCompile(`\{file:(\d+)\|name:([^}]+)\}`)

var audioExtensions = map[string]bool{
	".mp3": true, ".ogg": true, ".oga": true, ".opus": true,
	".wav": true, ".m4a": true, ".flac": true, ".aac": true,
	".webm": true, ".mp4": true,
}

// IsAudioName reports whether a filename looks like an audio file.
func IsAudioName(name string) bool {
	return audioExtensions[strings.ToLower(path.Ext(name))]
}

// ParseMessage extracts an actionable Message from a verified webhook body.
// baseURL and serviceUser are used to resolve shared audio files to WebDAV
// download URLs. Returns ErrSkip for deliveries with nothing to process and
// an error for malformed payloads.
func ParseMessage(body []byte, baseURL, serviceUser string) (*Message, error) {
	var act Activity
	if err := json.Unmarshal(body, &act); err != nil {
		return nil, err
	}

	// "Create" for regular messages, "Activity" for voice recordings
	// and file shares. Everything else (reactions, edits) is skipped.
	if act.Type != "Create" && act.Type != "Activity" {
		return nil, ErrSkip
	}
	if act.Actor.Type == "Application" {
		return nil, ErrSkip
	}

	token := lastSegment(act.Target.ID)
	if token == "" || act.Object.Content == "" {
		return nil, ErrSkip
	}

	msg := &Message{
		Token:   token,
		Actor:   act.Actor.Name,
		ActorID: lastSegment(act.Actor.ID),
		Text:    act.Object.Content,
	}
	if id, err := strconv.Atoi(lastSegment(act.Object.ID)); err == nil {
		msg.MessageID = id
	}

	// Content is usually a JSON envelope {"message": ..., "parameters": ...}.
	var envelope struct {
		Message    string                     `json:"message"`
		Parameters map[string]json.RawMessage `json:"parameters"`
	}
	var params map[string]json.RawMessage
	if err := json.Unmarshal([]byte(act.Object.Content), &envelope); err == nil && envelope.Message != "" {
		msg.Text = envelope.Message
		params = envelope.Parameters
	}

	msg.Audio = detectAudio(&act, params, baseURL, serviceUser)
	return msg, nil
}

// detectAudio resolves an audio attachment, if any, to a download URL.
func detectAudio(act *Activity, params map[string]json.RawMessage, baseURL, serviceUser string) *AudioFile {
	obj := &act.Object

	// Talk voice recordings carry a messageType and a direct object URL.
	if obj.MessageType == "voice-message" || obj.MessageType == "record-audio" {
		name := obj.Name
		if name == "" {
			name = "voice.ogg"
		}
		return &AudioFile{URL: obj.ID, Name: name}
	}
	if strings.HasPrefix(obj.MediaType, "audio/") {
		return &AudioFile{URL: obj.ID, Name: obj.Name, Mimetype: obj.MediaType}
	}

	// File share carried in the message parameters.
	if raw, ok := params["file"]; ok {
		var f fileParam
		if err := json.Unmarshal(raw, &f); err == nil {
			if strings.HasPrefix(f.Mimetype, "audio/") || IsAudioName(f.Name) {
				owner := serviceUser
				if raw, ok := params["actor"]; ok {
					var a Entity
					if json.Unmarshal(raw, &a) == nil && a.ID != "" {
						owner = lastSegment(a.ID)
					}
				}
				// Talk recordings land in the owner's Talk folder.
				u := baseURL + "/remote.php/dav/files/" + url.PathEscape(owner) + "/Talk/" + url.PathEscape(f.Name)
				return &AudioFile{URL: u, Name: f.Name, Mimetype: f.Mimetype}
			}
		}
	}

	// Inline file reference in the raw content.
	if m := filePattern.FindStringSubmatch(obj.Content); m != nil && IsAudioName(m[2]) {
		u := baseURL + "/remote.php/dav/files/" + url.PathEscape(serviceUser) + "/" + url.PathEscape(m[2])
		return &AudioFile{URL: u, Name: m[2]}
	}

	return nil
}

func lastSegment(s string) string {
	if s == "" {
		return ""
	}
	parts := strings.Split(s, "/")
	return parts[len(parts)-1]
}
