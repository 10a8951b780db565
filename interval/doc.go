/*Package interval handles genomic intervals for windowed pileup runs: it
  parses samtools-style region strings, reads BED files into merged interval
  lists, and splits an interval into fixed-width windows.
  It assumes every position fits in a PosType, which is currently defined as
  int32 since that's what BAM files are limited to.
*/
package interval
