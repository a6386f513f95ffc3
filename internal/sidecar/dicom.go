package sidecar

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/suyashkumar/dicom"
	"github.com/suyashkumar/dicom/pkg/tag"
)

// dicomFields are the header elements copied into a metadata row, named the
// way dcm2niix names them in its JSON sidecars.
var dicomFields = []struct {
	name string
	tag  tag.Tag
}{
	{"Modality", tag.Modality},
	{"MagneticFieldStrength", tag.MagneticFieldStrength},
	{"Manufacturer", tag.Manufacturer},
	{"ManufacturersModelName", tag.ManufacturerModelName},
	{"InstitutionName", tag.InstitutionName},
	{"SeriesDescription", tag.SeriesDescription},
	{"ProtocolName", tag.ProtocolName},
	{"SeriesNumber", tag.SeriesNumber},
	{"SliceThickness", tag.SliceThickness},
	{"SpacingBetweenSlices", tag.SpacingBetweenSlices},
	{"RepetitionTime", tag.RepetitionTime},
	{"EchoTime", tag.EchoTime},
	{"PatientID", tag.PatientID},
	{"StudyInstanceUID", tag.StudyInstanceUID},
	{"SeriesInstanceUID", tag.SeriesInstanceUID},
}

// readDICOMHeader parses the header of a single DICOM file, skipping pixel
// data, and returns its fields as an ordered row.
func readDICOMHeader(path string) (names []string, values map[string]string, err error) {
	dataset, err := dicom.ParseFile(path, nil, dicom.SkipPixelData())
	if err != nil {
		return nil, nil, fmt.Errorf("parse dicom: %w", err)
	}

	values = make(map[string]string, len(dicomFields)+1)
	for _, field := range dicomFields {
		value := elementString(dataset, field.tag)
		if value == "" {
			continue
		}
		names = append(names, field.name)
		values[field.name] = value
	}

	acquired := dicomDateTime(elementString(dataset, tag.AcquisitionDate), elementString(dataset, tag.AcquisitionTime))
	if acquired == "" {
		acquired = dicomDateTime(elementString(dataset, tag.SeriesDate), elementString(dataset, tag.SeriesTime))
	}
	if acquired == "" {
		acquired = dicomDateTime(elementString(dataset, tag.StudyDate), elementString(dataset, tag.StudyTime))
	}
	if acquired != "" {
		names = append(names, "AcquisitionDateTime")
		values["AcquisitionDateTime"] = acquired
	}
	return names, values, nil
}

func elementString(dataset dicom.Dataset, t tag.Tag) string {
	elem, err := dataset.FindElementByTag(t)
	if err != nil || elem.Value == nil {
		return ""
	}
	switch v := elem.Value.GetValue().(type) {
	case []string:
		return strings.TrimSpace(strings.Join(v, "\\"))
	case []int:
		parts := make([]string, len(v))
		for i, n := range v {
			parts[i] = strconv.Itoa(n)
		}
		return strings.Join(parts, "\\")
	case []float64:
		parts := make([]string, len(v))
		for i, f := range v {
			parts[i] = strconv.FormatFloat(f, 'f', -1, 64)
		}
		return strings.Join(parts, "\\")
	default:
		return ""
	}
}

// dicomDateTime joins a DA value (YYYYMMDD) and an optional TM value
// (HHMMSS.FFFFFF) into the ISO form dcm2niix writes. It returns "" when the
// date is not a DA value.
func dicomDateTime(date, tm string) string {
	date = strings.TrimSpace(date)
	if len(date) != 8 || !allDigits(date) {
		return ""
	}
	out := date[0:4] + "-" + date[4:6] + "-" + date[6:8]
	clock, frac, _ := strings.Cut(strings.TrimSpace(tm), ".")
	if len(clock) < 4 || !allDigits(clock) {
		return out
	}
	seconds := "00"
	if len(clock) >= 6 {
		seconds = clock[4:6]
	}
	out += "T" + clock[0:2] + ":" + clock[2:4] + ":" + seconds
	if frac != "" && allDigits(frac) {
		out += "." + frac
	}
	return out
}

func allDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return s != ""
}
