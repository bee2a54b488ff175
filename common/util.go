package common

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"go.uber.org/zap"
)

func ReadSettingsFile(settingsPath string) (string, error) {
	bytes, err := os.ReadFile(settingsPath)
	if err != nil {
		zap.L().Error(fmt.Sprintf("failed to read settings file/path:%s/reason:%s",
			settingsPath, err))
		if absolutePath, err := filepath.Abs(settingsPath); err != nil {
			zap.L().Error(fmt.Sprintf("failed to get absolute path of %s/reason:%s",
				settingsPath, err))
		} else {
			zap.L().Debug(fmt.Sprintf("absolute path:%s", absolutePath))
		}
		return "", err
	}
	return string(bytes), nil
}

func IsDirWritable(dirPath string) error {
	info, err := os.Stat(dirPath)
	if os.IsNotExist(err) {
		return fmt.Errorf("directory does not exist: %s", dirPath)
	}
	if err != nil {
		return err
	}

	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", dirPath)
	}

	tempFile, err := os.CreateTemp(dirPath, "test-write-*.tmp")
	if err != nil {
		return fmt.Errorf("write permission denied for directory: %s", dirPath)
	}
	fileName := tempFile.Name()
	tempFile.Close()

	if err := os.Remove(fileName); err != nil {
		return fmt.Errorf("failed to remove temporary file: %s", err)
	}

	return nil
}

// SortedLabels returns the keys of a label-keyed map in lexicographic order.
func SortedLabels[V any](m map[string]V) []string {
	labels := make([]string, 0, len(m))
	for l := range m {
		labels = append(labels, l)
	}
	sort.Strings(labels)
	return labels
}

// SameLabelSets reports whether two label-keyed maps cover exactly the same labels.
func SameLabelSets[V1, V2 any](a map[string]V1, b map[string]V2) bool {
	if len(a) != len(b) {
		return false
	}
	for l := range a {
		if _, ok := b[l]; !ok {
			return false
		}
	}
	return true
}

func DivideBitstringByLengths(input string, lengths []int) ([]string, error) {
	// ex) input: "101011011", lengths: [2, 3, 4] -> ["10", "101", "1011"]
	var result []string = []string{}
	currentPos := 0
	for _, length := range lengths {
		if currentPos+length > len(input) {
			return nil, errors.New("inconsistent bits")
		}
		result = append(result, input[currentPos:currentPos+length])
		currentPos += length
	}

	if currentPos != len(input) {
		return nil, errors.New("inconsistent bits")
	}

	return result, nil
}

// JoinLabels formats a label pair like "A and B" for error messages.
func JoinLabels(labels []string) string {
	return strings.Join(labels, " and ")
}
