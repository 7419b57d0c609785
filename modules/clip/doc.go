/*
Package clip resolves a RAW clip on disk: what kind of essence it is, where
each frame lives and what the clip's metadata says.

A CinemaDNG clip is a folder holding one .dng file per frame. The frame
number is a zero-padded run of digits in the file name (the sequencing
field), found once by Validate from the lexicographically first frame:

	A001_C002_0421_000100.dng
	                ^^^^^^
	                Position 15, Length 6

FramePath and FrameNumber map between the two in both directions.

Typical use:

	c, err := clip.New("/media/A001_C002_0421")
	if err != nil { ... }
	if err := c.Validate(); err != nil { ... }
	if err := c.ReadMetadata(); err != nil { ... }
	md := c.Metadata()
	decode := c.Decoder(nil)

Errors returned by this package can be grouped with Classify.
*/
package clip
