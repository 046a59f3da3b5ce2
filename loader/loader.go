// This file is part of glulxcore.
//
// glulxcore is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// glulxcore is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with glulxcore.  If not, see <https://www.gnu.org/licenses/>.

// Package loader extracts a raw Glulx executable from an image file
// and parses its fixed header.
//
// If the image is Blorb-wrapped (leading "FORM"), the loader walks just
// enough of the IFF chunk structure to find the GLUL/Exec chunk; it is
// deliberately not a full Blorb container parser.
package loader

import (
	"encoding/binary"

	"github.com/erkyrath/glulxcore/internal/curated"
)

// Header is the fixed-layout structure at offset 0 of a Glulx image.
type Header struct {
	Magic           uint32
	Version         uint32
	RAMStart        uint32
	EndGameFile     uint32
	OrigEndMem      uint32
	StackSize       uint32
	StartFuncAddr   uint32
	OrigStringTable uint32
	Checksum        uint32
}

const (
	glulxMagic   = 0x476c756c // "Glul"
	headerLength = 36
)

// Load extracts the raw Glulx bytes from raw (unwrapping a Blorb FORM
// container if present), parses and validates the header, and returns
// both the header and the executable bytes.
func Load(raw []byte) (Header, []byte, error) {
	image, err := unwrapBlorb(raw)
	if err != nil {
		return Header{}, nil, err
	}

	hdr, err := parseHeader(image)
	if err != nil {
		return Header{}, nil, err
	}

	if err := validate(hdr, uint32(len(image))); err != nil {
		return Header{}, nil, err
	}

	return hdr, image, nil
}

// unwrapBlorb returns raw unchanged unless it begins with the IFF "FORM"
// tag, in which case it walks the top-level chunk list looking for a
// "GLUL" chunk (the form type used by Blorb for an embedded Glulx
// executable) and returns its payload.
func unwrapBlorb(raw []byte) ([]byte, error) {
	if len(raw) < 12 || string(raw[0:4]) != "FORM" {
		return raw, nil
	}

	formType := string(raw[8:12])
	if formType != "IFRS" && formType != "GLUL" {
		return nil, curated.Errorf("image", "unrecognised FORM type %q", formType)
	}

	if formType == "GLUL" {
		// no Blorb wrapper, just a bare FORM/GLUL executable chunk.
		return raw[12:], nil
	}

	pos := 12
	for pos+8 <= len(raw) {
		chunkID := string(raw[pos : pos+4])
		chunkLen := int(binary.BigEndian.Uint32(raw[pos+4 : pos+8]))
		dataStart := pos + 8

		if dataStart+chunkLen > len(raw) {
			return nil, curated.Errorf("image", "truncated %q chunk in blorb container", chunkID)
		}

		if chunkID == "GLUL" {
			return raw[dataStart : dataStart+chunkLen], nil
		}

		pos = dataStart + chunkLen
		if chunkLen%2 == 1 {
			pos++ // chunks are padded to an even length
		}
	}

	return nil, curated.Errorf("image", "no GLUL executable chunk found in blorb container")
}

func parseHeader(image []byte) (Header, error) {
	if len(image) < headerLength {
		return Header{}, curated.Errorf("image", "image too short to contain a header (%d bytes)", len(image))
	}

	be := binary.BigEndian
	return Header{
		Magic:           be.Uint32(image[0:4]),
		Version:         be.Uint32(image[4:8]),
		RAMStart:        be.Uint32(image[8:12]),
		EndGameFile:     be.Uint32(image[12:16]),
		OrigEndMem:      be.Uint32(image[16:20]),
		StackSize:       be.Uint32(image[20:24]),
		StartFuncAddr:   be.Uint32(image[24:28]),
		OrigStringTable: be.Uint32(image[28:32]),
		Checksum:        be.Uint32(image[32:36]),
	}, nil
}

// validate checks the header invariants: 0x100 <= ramstart <=
// endgamefile <= origendmem; endgamefile == image length.
func validate(hdr Header, imageLen uint32) error {
	if hdr.Magic != glulxMagic {
		return curated.Errorf("image", "bad magic number %#08x", hdr.Magic)
	}

	major := hdr.Version >> 16
	if major < 2 || major > 3 {
		return curated.Errorf("image", "unsupported version %#08x", hdr.Version)
	}

	if hdr.RAMStart < 0x100 {
		return curated.Errorf("image", "ramstart %#x below minimum header size", hdr.RAMStart)
	}
	if hdr.RAMStart > hdr.EndGameFile {
		return curated.Errorf("image", "ramstart %#x exceeds endgamefile %#x", hdr.RAMStart, hdr.EndGameFile)
	}
	if hdr.EndGameFile > hdr.OrigEndMem {
		return curated.Errorf("image", "endgamefile %#x exceeds origendmem %#x", hdr.EndGameFile, hdr.OrigEndMem)
	}
	if hdr.EndGameFile != imageLen {
		return curated.Errorf("image", "endgamefile %#x does not match image length %#x", hdr.EndGameFile, imageLen)
	}
	if hdr.OrigEndMem%256 != 0 {
		return curated.Errorf("image", "origendmem %#x is not a multiple of 256", hdr.OrigEndMem)
	}

	return nil
}
