package rules

// Well-known labels produced outside the main table.
const (
	LabelOthers = "Others"
	LabelDelete = "delete"
	Label3DT1   = "3DT1"
	LabelT1     = "T1"
	LabelSWI    = "SWI"
	LabelSWIPha = "SWI_Pha"
	LabelSWIMag = "SWI_Mag"
)

const (
	defaultOthers = `loc|range|report|survey|Screen Save|FGRE|Projection|Processed|Calibration|T1-SPACE|Vs3D_PCA|PosDisp|SPAIR|AutoSave|PSD20210113|angio|DSA|Topogram|BOLUS|Angio3D|Spine|AbdRoutine|Scout|CAROTIDS|mip|min IP|minP`
	defaultDelete = `TSE SENSE|tse_sag_320|tse_sag_384|AbdRoutine|ThorRoutine|CerebrumSeq|STIR|Plane Pilot|Protocol|electronic film|Basic Reading|DEFAULT PS SERIES|Thorax|Carotid|MobiV`

	defaultManufacturerDelete = `jpg|pjn`
	defaultProtocolOthers     = `loc`
	defaultUppercaseOthers    = `^[A-Z]{5}$`

	// DefaultFallbackVendor is the manufacturer whose series often carry no
	// usable SeriesDescription and are labeled from ProtocolName instead.
	DefaultFallbackVendor = "TOSHIBA_MEC"
)

// DefaultSequence returns the stock label table in priority order (lowest
// first).
func DefaultSequence() []Entry {
	return []Entry{
		{Label: "T2", Pattern: `T2|t2_blade_tra_p2|Prop T2 TRF|T2 tra`},
		{Label: "T2Flair", Pattern: `Flair|t2_tirm_tra_dark-fluid|t2_tirm_cor_dark-fluid|t2_tse_dark-fluid|OCor fs T2 FLAIR|t2_tra_dark-fluid_p3|T2_tse_dark_fluid_tra|T2_FLAIR_tra|t2_trim_tra_dark-fluid_p3|T2_trim_tra_dark-fluid`},
		{Label: "T1", Pattern: `T1|MPRAGE|MultiPlanar Reconstruction|s3DI_MC_HR|BRAVO|s3D_PCA_SAG|OAx T1 FLAIR|T1_tse_dark_fluid_tra|Oax T1 Flair|T1_trim_tra_dark-fluid|t1_fl2d_tra_p2|t1_fl2d_sag_4mm|t1_tse_dark-fluid_tra_p2|t1_trim_tra_p2|t1_fl2d_tra_p1|t1_tse_dark-fluid_tra_p2|T1_trim_tra_dark-fluid|t1_fl2d_sag_4mm`},
		{Label: "DWI", Pattern: `DWI|scan_trace|DW_SSh|b=0`},
		{Label: "ADC", Pattern: `ADC|Apparent Diffusion Coefficient`},
		{Label: "TOF", Pattern: `TOF|mra|PC_3D_10_tra`},
		{Label: "ASL", Pattern: `asl|Perfusion_Weighted`},
		{Label: "DTI", Pattern: `dti`},
		{Label: "SWI", Pattern: `SWI|SWAN|Phase Ob_Ax_I|hemo|t2_swi|SWI_tra|SWI_t2|t2_fl3d_tra|SWI_fl3d_tra|Pha_Images|FILT_PHA|Mag_Images|FILT_MAG|Ax SWAN`},
		{Label: "QSM", Pattern: `qsm`},
		{Label: "Plaque", Pattern: `Plaque`},
		{Label: "bold", Pattern: `bold|Resting_state`},
	}
}

// DefaultConfig returns the stock rule configuration.
func DefaultConfig() Config {
	return Config{
		Sequence:           DefaultSequence(),
		Others:             Slot(defaultOthers),
		Delete:             Slot(defaultDelete),
		ManufacturerDelete: Slot(defaultManufacturerDelete),
		ProtocolOthers:     Slot(defaultProtocolOthers),
		UppercaseOthers:    Slot(defaultUppercaseOthers),
		OthersExact:        []string{"A", "2", "HF"},
		Fallback: []FallbackConfig{
			{
				Vendor: DefaultFallbackVendor,
				Field:  FieldProtocolName,
				Sequence: []Entry{
					{Label: "T2Flair", Pattern: `Flair`},
					{Label: "T2", Pattern: `T2`},
					{Label: "T1", Pattern: `T1`},
				},
			},
		},
	}
}
