package audio

import "strconv"

// The line interface codec only runs at this format; it is not configurable.
const (
	SampleFormat = "S32_LE"
	SampleRate   = 96000
	Channels     = 2
)

func formatArgs(device string) []string {
	return []string{
		"-D", device,
		"-c", strconv.Itoa(Channels),
		"-r", strconv.Itoa(SampleRate),
		"-f", SampleFormat,
	}
}

func recordArgs(device, path string) []string {
	return append(formatArgs(device), "-t", "wav", path)
}

func playArgs(device, path string) []string {
	return append(formatArgs(device), path)
}
