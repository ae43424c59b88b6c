// Package corpus manages the fixed document corpus: fetching the
// published dataset archives from public mirrors and pushing the
// extracted PDFs to blob storage.
package corpus

import (
	"strconv"

	"marginalia/backend/pkg/safeoutbound"
)

// Dataset is one published archive with its mirror list and the
// checksum from the upstream release notes.
type Dataset struct {
	Num    int
	SizeMB int64
	URLs   []string
	SHA256 string
}

// DownloadHosts is the mirror allowlist. Downloads are refused from
// anywhere else regardless of what a dataset entry says.
var DownloadHosts = safeoutbound.NewHostSet(
	"archive.org",
	"copyparty.vvv.systems",
	"www.justice.gov",
)

func mirrorURLs(archiveItem string, num int) []string {
	name := datasetArchiveName(num)
	return []string{
		"https://archive.org/download/" + archiveItem + "/" + name,
		"https://copyparty.vvv.systems/DOJ%20Epstein%20Files/justice.gov/" + name,
		"https://www.justice.gov/epstein/files/" + name,
	}
}

// Datasets lists every archive we mirror. Dataset 9 is omitted: the
// upstream release is incomplete and roughly 180 GB.
var Datasets = map[int]Dataset{
	1:  {Num: 1, SizeMB: 1230, URLs: mirrorURLs("data-set-1", 1), SHA256: "598F4D2D71F0D183CF898CD9D6FB8EC1F6161E0E71D8C37897936AEF75F860B4"},
	2:  {Num: 2, SizeMB: 630, URLs: mirrorURLs("data-set-1", 2), SHA256: "24CEBBAEFE9D49BCA57726B5A4B531FF20E6A97C370BA87A7593DD8DBDB77BFF"},
	3:  {Num: 3, SizeMB: 595, URLs: mirrorURLs("data-set-1", 3), SHA256: "160231C8C689C76003976B609E55689530FC4832A1535CE13BFCD8F871C21E65"},
	4:  {Num: 4, SizeMB: 351, URLs: mirrorURLs("data-set-1", 4), SHA256: "979154842BAC356EF36BB2D0E72F78E0F6B771D79E02DD6934CFF699944E2B71"},
	5:  {Num: 5, SizeMB: 61, URLs: mirrorURLs("data-set-1", 5), SHA256: "7317E2AD089C82A59378A9C038E964FEAB246BE62ECC24663B741617AF3DA709"},
	6:  {Num: 6, SizeMB: 51, URLs: mirrorURLs("data-set-1", 6), SHA256: "D54D26D94127B9A277CF3F7D9EEAF9A7271F118757997EDAC3BC6E1039ED6555"},
	7:  {Num: 7, SizeMB: 97, URLs: mirrorURLs("data-set-1", 7), SHA256: "51E1961B3BCF18A21AFD9BCF697FDB54DAC97D1B64CF88297F4C5BE268D26B8E"},
	8:  {Num: 8, SizeMB: 10670, URLs: mirrorURLs("data-set-8", 8), SHA256: "8cb7345bf7a0b32f183658ac170fb0b6527895c95f0233d7b99d544579567294"},
	10: {Num: 10, SizeMB: 78650, URLs: mirrorURLs("data-set-10", 10), SHA256: "7D6935B1C63FF2F6BCABDD024EBC2A770F90C43B0D57B646FA7CBD4C0ABCF846"},
	// Dataset 11 never made it to archive.org.
	11: {Num: 11, SizeMB: 27500, URLs: []string{
		"https://copyparty.vvv.systems/DOJ%20Epstein%20Files/justice.gov/DataSet%2011.zip",
		"https://www.justice.gov/epstein/files/DataSet%2011.zip",
	}, SHA256: "9714273B9E325F0A1F406063C795DB32F5DA2095B75E602D4C4FBABA5DE3ED80"},
	12: {Num: 12, SizeMB: 114, URLs: mirrorURLs("data-set-12_202601", 12), SHA256: "B5314B7EFCA98E25D8B35E4B7FAC3EBB3CA2E6CFD0937AA2300CA8B71543BBE2"},
}

// SmallDatasets are the ones under a gigabyte, the default fetch set.
var SmallDatasets = []int{1, 2, 3, 4, 5, 6, 7, 12}

// AllDatasets includes the multi-gigabyte archives.
var AllDatasets = []int{1, 2, 3, 4, 5, 6, 7, 8, 10, 11, 12}

func datasetArchiveName(num int) string {
	// Upstream names the archives "DataSet N.zip".
	return "DataSet%20" + strconv.Itoa(num) + ".zip"
}
