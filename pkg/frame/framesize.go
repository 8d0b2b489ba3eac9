package frame

// FrameSize returns the number of bytes a width x height frame occupies in format f.
func FrameSize(f Format, width, height int) (int, error) {
	layout, err := Describe(f, width, height)
	if err != nil {
		return 0, err
	}
	return layout.Size, nil
}
