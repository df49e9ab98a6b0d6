package edge

import (
	"fmt"
	"strconv"
	"strings"
)

// IsChardevPath reports whether a device path names a GPIO character device
// line ("gpiochip0:27" or "/dev/gpiochip0:27") rather than a sysfs value
// file.
func IsChardevPath(path string) bool {
	_, _, err := ParseChardevPath(path)
	return err == nil
}

// ParseChardevPath splits a character device path into chip name and line
// offset. The accepted forms are "<chip>:<offset>" and "/dev/<chip>:<offset>"
// where <chip> starts with "gpiochip".
func ParseChardevPath(path string) (chip string, offset int, err error) {
	i := strings.LastIndex(path, ":")
	if i < 0 {
		return "", 0, fmt.Errorf("edge: %q is not a chip:offset path", path)
	}
	chip = strings.TrimPrefix(path[:i], "/dev/")
	if !strings.HasPrefix(chip, "gpiochip") {
		return "", 0, fmt.Errorf("edge: %q does not name a gpiochip", path)
	}
	offset, err = strconv.Atoi(path[i+1:])
	if err != nil || offset < 0 {
		return "", 0, fmt.Errorf("edge: bad line offset in %q", path)
	}
	return chip, offset, nil
}
