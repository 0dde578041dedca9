package cli

import (
	"fmt"

	"github.com/geocine/epubweb/internal/utils"
)

// CleanResult summarizes what Clean removed
type CleanResult struct {
	Dir     string
	Existed bool
	Files   int
	Dirs    int
	Bytes   int64
}

// String formats the result for the terminal
func (r CleanResult) String() string {
	if !r.Existed {
		return fmt.Sprintf("Nothing to clean; directory '%s' does not exist.", r.Dir)
	}
	return fmt.Sprintf("Removed %d files, %d directories, %s from '%s'.", r.Files, r.Dirs, utils.HumanBytes(r.Bytes), r.Dir)
}

// Clean removes a generated site directory
func Clean(dir string) (CleanResult, error) {
	res := CleanResult{Dir: dir}
	if dir == "" {
		return res, fmt.Errorf("no directory to clean")
	}
	if !utils.DirExists(dir) {
		return res, nil
	}
	res.Existed = true
	res.Files, res.Dirs, res.Bytes = utils.DirUsage(dir)
	if err := utils.RemoveAll(dir); err != nil {
		return res, err
	}
	return res, nil
}
