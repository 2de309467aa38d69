package attendance

import (
	"net/url"
	"strconv"
	"strings"

	"attendanceweb/internal/backend"
)

// Band is the colour band of an attendance percentage.
type Band struct {
	Class string
	Label string
}

var (
	BandExcellent      = Band{Class: "status-excellent", Label: "Excellent"}
	BandGood           = Band{Class: "status-good", Label: "Good"}
	BandNeedsAttention = Band{Class: "status-needs-attention", Label: "Needs Attention"}
)

// BandFor classifies p. Lower bounds are inclusive: 90 is excellent, 75 is good.
func BandFor(p float64) Band {
	switch {
	case p >= 90:
		return BandExcellent
	case p >= 75:
		return BandGood
	default:
		return BandNeedsAttention
	}
}

// FormatPercent renders a backend percentage without trailing zeros, e.g. "86.7%".
func FormatPercent(p float64) string {
	return strconv.FormatFloat(p, 'f', -1, 64) + "%"
}

var avatarPalette = [...]string{"#3b82f6", "#ef4444", "#10b981", "#f59e0b", "#8b5cf6"}

// AvatarColor picks the placeholder colour from the last digit of the student id.
// Ids that do not end in a digit get the first colour.
func AvatarColor(studentID string) string {
	if studentID == "" {
		return avatarPalette[0]
	}
	last := studentID[len(studentID)-1]
	if last < '0' || last > '9' {
		return avatarPalette[0]
	}
	return avatarPalette[int(last-'0')%len(avatarPalette)]
}

// AvatarLabel is the file name of imagePath without directory or extension.
func AvatarLabel(imagePath string) string {
	name := imagePath
	if i := strings.LastIndex(name, "/"); i >= 0 {
		name = name[i+1:]
	}
	if i := strings.Index(name, "."); i >= 0 {
		name = name[:i]
	}
	if name == "" {
		return "Student"
	}
	return name
}

// AvatarURL is the generated placeholder photo for a student.
func AvatarURL(imagePath, studentID string, size int) string {
	return "https://ui-avatars.com/api/?name=" + url.QueryEscape(AvatarLabel(imagePath)) +
		"&background=" + strings.TrimPrefix(AvatarColor(studentID), "#") +
		"&color=fff&size=" + strconv.Itoa(size) + "&rounded=true"
}

// FormatDate renders a wire date the way the en-IN locale spells it out.
// Unparseable input is returned unchanged.
func FormatDate(date string) string {
	d, err := backend.ParseDate(date)
	if err != nil {
		return date
	}
	return d.Format("Monday, 2 January 2006")
}
