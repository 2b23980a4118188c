package backup

import (
	"archive/tar"
	"compress/gzip"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// writeArchive writes root as a gzipped tar to w and returns the number of
// regular files it contains. A directory is stored relative to itself; a
// single file is stored under its base name.
func writeArchive(w io.Writer, root string, info fs.FileInfo) (files int, err error) {
	gzWriter := gzip.NewWriter(w)
	tarWriter := tar.NewWriter(gzWriter)

	add := func(path, name string, fi fs.FileInfo) error {
		if err := addFile(tarWriter, path, name, fi); err != nil {
			return err
		}
		if fi.Mode().IsRegular() {
			files++
		}
		return nil
	}

	if info.IsDir() {
		err = filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
			if walkErr != nil {
				return walkErr
			}
			rel, err := filepath.Rel(root, path)
			if err != nil {
				return err
			}
			if rel == "." {
				return nil
			}
			fi, err := d.Info()
			if err != nil {
				return err
			}
			return add(path, filepath.ToSlash(rel), fi)
		})
	} else {
		err = add(root, filepath.Base(root), info)
	}
	if err != nil {
		return 0, err
	}

	if err := tarWriter.Close(); err != nil {
		return 0, fmt.Errorf("failed to close tar writer: %w", err)
	}
	if err := gzWriter.Close(); err != nil {
		return 0, fmt.Errorf("failed to close gzip writer: %w", err)
	}
	return files, nil
}

// addFile writes one header and, for regular files, its content. Sockets,
// devices and pipes are skipped.
func addFile(tw *tar.Writer, path, name string, info fs.FileInfo) error {
	mode := info.Mode()
	if !mode.IsRegular() && !mode.IsDir() && mode&fs.ModeSymlink == 0 {
		return nil
	}

	link := ""
	if mode&fs.ModeSymlink != 0 {
		var err error
		if link, err = os.Readlink(path); err != nil {
			return fmt.Errorf("failed to read link %s: %w", path, err)
		}
	}

	header, err := tar.FileInfoHeader(info, link)
	if err != nil {
		return fmt.Errorf("failed to build tar header for %s: %w", path, err)
	}
	header.Name = name
	if mode.IsDir() {
		header.Name += "/"
	}
	if err := tw.WriteHeader(header); err != nil {
		return fmt.Errorf("failed to write tar header for %s: %w", path, err)
	}
	if !mode.IsRegular() {
		return nil
	}

	// #nosec G304 - path comes from walking the snapshot source
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	if _, err := io.Copy(tw, f); err != nil {
		return fmt.Errorf("failed to archive %s: %w", path, err)
	}
	return nil
}

// extractArchive unpacks r. A directory snapshot is unpacked under target; a
// file snapshot is written to target itself.
func extractArchive(r io.Reader, target string, dir bool) (int, error) {
	gzReader, err := gzip.NewReader(r)
	if err != nil {
		return 0, fmt.Errorf("failed to create gzip reader: %w", err)
	}
	defer func() { _ = gzReader.Close() }()

	tarReader := tar.NewReader(gzReader)
	if dir {
		if err := os.MkdirAll(target, DirPerm); err != nil {
			return 0, fmt.Errorf("failed to create %s: %w", target, err)
		}
	}

	files := 0
	for {
		header, err := tarReader.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return files, fmt.Errorf("failed to read tar header: %w", err)
		}

		dest := target
		if dir {
			if dest, err = safeJoin(target, header.Name); err != nil {
				return files, err
			}
		}

		switch header.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(dest, DirPerm); err != nil {
				return files, fmt.Errorf("failed to create %s: %w", dest, err)
			}
		case tar.TypeSymlink:
			if err := os.MkdirAll(filepath.Dir(dest), DirPerm); err != nil {
				return files, fmt.Errorf("failed to create %s: %w", filepath.Dir(dest), err)
			}
			if err := os.Remove(dest); err != nil && !os.IsNotExist(err) {
				return files, fmt.Errorf("failed to replace %s: %w", dest, err)
			}
			if err := os.Symlink(header.Linkname, dest); err != nil {
				return files, fmt.Errorf("failed to link %s: %w", dest, err)
			}
		case tar.TypeReg:
			if err := writeFile(dest, tarReader, header.FileInfo().Mode().Perm()); err != nil {
				return files, err
			}
			files++
		}
	}
	return files, nil
}

func writeFile(path string, r io.Reader, perm fs.FileMode) error {
	if err := os.MkdirAll(filepath.Dir(path), DirPerm); err != nil {
		return fmt.Errorf("failed to create %s: %w", filepath.Dir(path), err)
	}

	// #nosec G304 - path is inside the restore target
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, perm)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if _, err := io.Copy(f, r); err != nil {
		_ = f.Close()
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", path, err)
	}
	// OpenFile leaves the mode of an existing file untouched.
	return os.Chmod(path, perm)
}

// safeJoin joins an archive member name onto root, rejecting names that
// would escape it.
func safeJoin(root, name string) (string, error) {
	clean := filepath.Clean(filepath.FromSlash(name))
	if filepath.IsAbs(clean) || clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: unsafe path %q in archive", ErrCorrupted, name)
	}
	return filepath.Join(root, clean), nil
}
