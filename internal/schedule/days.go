package schedule

// Days holds the seven day names in display order. Day names are case
// sensitive and are used verbatim as document keys.
var Days = []string{
	"Monday",
	"Tuesday",
	"Wednesday",
	"Thursday",
	"Friday",
	"Saturday",
	"Sunday",
}

var daySet = func() map[string]bool {
	m := make(map[string]bool, len(Days))
	for _, d := range Days {
		m[d] = true
	}
	return m
}()

func IsDay(name string) bool {
	return daySet[name]
}

// DayIndex returns the display position of the day, or -1.
func DayIndex(name string) int {
	for i, d := range Days {
		if d == name {
			return i
		}
	}
	return -1
}
